package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bstardust/photosync/internal/config"
	"github.com/bstardust/photosync/internal/exif"
	"github.com/bstardust/photosync/internal/hasher"
	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/internal/metadata"
	"github.com/bstardust/photosync/internal/syncer"
	"github.com/bstardust/photosync/pkg/models"
	"github.com/bstardust/photosync/pkg/s3client"
)

func newInspectCommand(configPath *string) *cobra.Command {
	d := config.New()
	cmd := &cobra.Command{
		Use:   "inspect [flags] <photo.jpg>...",
		Short: "Show the capture time, location and content hash of photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}

			loc, err := cfg.Sync.Location()
			if err != nil {
				return err
			}

			// geocoding is opt-in here, unlike sync
			var resolver syncer.LocationResolver
			if cmd.Flags().Changed("geocode") && cfg.Geocode.Enabled {
				resolver = newResolver(cfg.Geocode)
			}

			inspector := &inspector{
				out:       cmd.OutOrStdout(),
				extractor: metadata.NewExtractor(loc),
				resolver:  resolver,
			}
			for _, path := range args {
				if err := inspector.inspect(cmd, path); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("geocode", false, "Resolve the place name of GPS-tagged photos")
	cmd.Flags().String("geocode-url", d.Geocode.Endpoint, "Reverse geocoding endpoint")
	cmd.Flags().String("user-agent", d.Geocode.UserAgent, "User-Agent sent to the geocoding service")
	cmd.Flags().String("language", d.Geocode.Language, "Preferred place name languages")
	cmd.Flags().String("home-country", d.Geocode.HomeCountry, "Country code named by province and district")
	cmd.Flags().String("time-zone", d.Sync.TimeZone, "Time zone of EXIF timestamps")

	return cmd
}

type inspector struct {
	out       io.Writer
	extractor *metadata.Extractor
	resolver  syncer.LocationResolver
}

func (i *inspector) inspect(cmd *cobra.Command, path string) error {
	if !s3client.IsImageFile(path) {
		logger.Warn("%s does not look like a photo", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	ref := models.PhotoRef{ID: path, Path: path, Size: info.Size(), ModTime: info.ModTime()}
	rec := exif.Decode(data)
	meta := i.extractor.Extract(data, ref)

	fmt.Fprintf(i.out, "%s\n", path)
	fmt.Fprintf(i.out, "  size:     %s\n", humanize.Bytes(uint64(len(data))))
	fmt.Fprintf(i.out, "  sha256:   %s\n", hasher.HashBytes(data))
	if rec.Empty() {
		fmt.Fprintf(i.out, "  exif:     none\n")
	}
	fmt.Fprintf(i.out, "  taken:    %s (%s)\n", meta.TakenAt.Format(time.RFC3339), meta.TakenAtSource)
	if meta.CameraMake != "" || meta.CameraModel != "" {
		fmt.Fprintf(i.out, "  camera:   %s %s\n", meta.CameraMake, meta.CameraModel)
	}
	if meta.GPS != nil {
		fmt.Fprintf(i.out, "  gps:      %.6f, %.6f\n", meta.GPS.Latitude, meta.GPS.Longitude)
		if i.resolver != nil {
			if name, ok := i.resolver.Resolve(cmd.Context(), meta.GPS.Latitude, meta.GPS.Longitude); ok {
				fmt.Fprintf(i.out, "  place:    %s\n", name)
			} else {
				fmt.Fprintf(i.out, "  place:    unknown\n")
			}
		}
	}
	return nil
}
