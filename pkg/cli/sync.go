package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bstardust/photosync/internal/adapter/devicefs"
	"github.com/bstardust/photosync/internal/config"
	"github.com/bstardust/photosync/internal/geocode"
	"github.com/bstardust/photosync/internal/journal"
	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/internal/metadata"
	"github.com/bstardust/photosync/internal/progress"
	"github.com/bstardust/photosync/internal/store"
	"github.com/bstardust/photosync/internal/syncer"
	"github.com/bstardust/photosync/internal/uploader"
	"github.com/bstardust/photosync/pkg/common"
	"github.com/bstardust/photosync/pkg/s3client"
)

func newSyncCommand(configPath *string) *cobra.Command {
	var picked []string

	d := config.New()
	cmd := &cobra.Command{
		Use:   "sync [flags]",
		Short: "Upload new photos from a device library",
		Long: `Uploads every photo added to the library since the last sync, or only the
photos named with --pick. Photos whose content was already uploaded by the
user are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			req := syncer.Request{UserID: cfg.Sync.UserID, Mode: syncer.ModeScan}
			if len(picked) > 0 {
				req.Mode = syncer.ModePick
				req.PickedIDs = picked
			}
			return runSync(cmd.Context(), cfg, req, cmd)
		},
	}

	// Sync selection
	cmd.Flags().String("user", "", "User id photos are synced for (required)")
	cmd.Flags().String("library", "", "Device library directory or .zip archive (required)")
	cmd.Flags().StringSliceVar(&picked, "pick", nil, "Sync only these library paths; the checkpoint is left untouched")
	cmd.Flags().String("journal", "", "Keep checkpoints in this file instead of the database")
	cmd.Flags().String("time-zone", d.Sync.TimeZone, "Time zone of EXIF timestamps")

	// S3 connection flags
	cmd.Flags().String("endpoint", "", "S3 endpoint, host[:port]")
	cmd.Flags().String("region", d.S3.Region, "S3 region")
	cmd.Flags().String("bucket", "", "S3 bucket name")
	cmd.Flags().String("access-key", "", "S3 access key")
	cmd.Flags().String("secret-key", "", "S3 secret key")
	cmd.Flags().Bool("use-ssl", d.S3.UseSSL, "Use SSL for S3 connection")
	cmd.Flags().String("prefix", "", "Prefix for S3 object keys")
	cmd.Flags().Bool("disable-checksums", false, "Skip content checksums for providers that reject them")

	// Upload options
	cmd.Flags().Bool("dry-run", false, "Report what would be uploaded without uploading")
	cmd.Flags().Int("max-retries", d.Upload.MaxRetries, "Retries per upload on transient errors")
	cmd.Flags().String("db", d.Database.DSN, "SQLite file or postgres:// DSN of the photo store")

	// Geocoding
	cmd.Flags().Bool("geocode", d.Geocode.Enabled, "Resolve place names from GPS coordinates")
	cmd.Flags().String("geocode-url", d.Geocode.Endpoint, "Reverse geocoding endpoint")
	cmd.Flags().String("user-agent", d.Geocode.UserAgent, "User-Agent sent to the geocoding service")
	cmd.Flags().String("language", d.Geocode.Language, "Preferred place name languages")
	cmd.Flags().String("home-country", d.Geocode.HomeCountry, "Country code named by province and district")

	return cmd
}

func runSync(ctx context.Context, cfg *config.Config, req syncer.Request, cmd *cobra.Command) error {
	loc, err := cfg.Sync.Location()
	if err != nil {
		return err
	}

	db, err := store.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}
	photos := store.NewPhotoRepository(db)

	var checkpoints syncer.CheckpointStore = store.NewCheckpointRepository(db)
	if cfg.Sync.JournalPath != "" {
		jnl := journal.New(cfg.Sync.JournalPath)
		logger.Info("Using checkpoint journal %s", jnl.Path())
		checkpoints = jnl
	}
	if cfg.Upload.DryRun {
		checkpoints = readOnlyCheckpoints{checkpoints}
	}

	var storage s3client.ObjectStorage
	if !cfg.Upload.DryRun {
		client, err := s3client.NewMinIO(ctx, s3Config(cfg.S3))
		if err != nil {
			logger.Error("S3 connection failed: %s", s3client.FormatError(err))
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		storage = client
	}

	retry := uploader.DefaultRetryConfig()
	retry.MaxRetries = cfg.Upload.MaxRetries
	up := uploader.New(storage, photos, uploader.Options{
		DryRun:  cfg.Upload.DryRun,
		Retry:   retry,
		Timeout: cfg.Upload.Timeout,
	})

	library, err := devicefs.Open(ctx, cfg.Sync.LibraryPath)
	if err != nil {
		return err
	}
	defer library.Close()
	logger.Info("Library %s has %d photos", library.Name(), library.Len())

	coordinator := syncer.New(library, photos, up, checkpoints, syncer.Options{
		Extractor: metadata.NewExtractor(loc),
		Resolver:  newResolver(cfg.Geocode),
	})

	reporter := progress.New()
	reporter.Start()
	req.Progress = reporter.Observe

	summary, err := coordinator.Run(ctx, req)
	reporter.Finish(summary)
	fmt.Fprintln(cmd.OutOrStdout(), summary)
	if err != nil {
		if common.IsBatchFatal(err) {
			return fmt.Errorf("sync did not start: %w", err)
		}
		return fmt.Errorf("sync stopped after %d photos: %w", summary.Total(), err)
	}

	if total, err := photos.CountPhotos(ctx, req.UserID); err == nil {
		logger.Info("%s now has %d photos stored", req.UserID, total)
	}
	return nil
}

func s3Config(c config.S3Config) s3client.Config {
	return s3client.Config{
		Endpoint:  c.Endpoint,
		Region:    c.Region,
		Bucket:    c.Bucket,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		UseSSL:    c.UseSSL,
		Prefix:    c.Prefix,

		DisableChecksums: c.DisableChecksums,
	}
}

// newResolver returns nil when geocoding is disabled
func newResolver(c config.GeocodeConfig) syncer.LocationResolver {
	if !c.Enabled {
		return nil
	}
	client := geocode.NewNominatimClient(geocode.NominatimConfig{
		Endpoint:  c.Endpoint,
		UserAgent: c.UserAgent,
		Language:  c.Language,
		Timeout:   c.Timeout,
	})
	return geocode.NewResolver(client, geocode.NewCache(), geocode.Options{
		Interval:    c.Interval,
		HomeCountry: c.HomeCountry,
	})
}

// readOnlyCheckpoints keeps dry runs from moving the checkpoint
type readOnlyCheckpoints struct {
	syncer.CheckpointStore
}

func (r readOnlyCheckpoints) SetCheckpoint(_ context.Context, userID string, at time.Time) error {
	logger.Info("[DRY RUN] Would advance checkpoint for %s to %s", userID, at.Format(time.RFC3339))
	return nil
}
