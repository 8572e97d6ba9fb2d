package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bstardust/photosync/internal/config"
	"github.com/bstardust/photosync/internal/hasher"
	"github.com/bstardust/photosync/internal/journal"
	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/pkg/common"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "sync")
	assert.Contains(t, names, "inspect")
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestInspect_PrintsHashAndFallbackTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	data := []byte("not really a jpeg")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"inspect", "--time-zone", "UTC", path})
	require.NoError(t, root.ExecuteContext(context.Background()))

	text := out.String()
	assert.Contains(t, text, hasher.HashBytes(data))
	assert.Contains(t, text, "exif:     none")
	assert.Contains(t, text, "(file)")
	assert.NotContains(t, text, "gps:")
}

func TestInspect_MissingFile(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"inspect", filepath.Join(t.TempDir(), "missing.jpg")})
	assert.Error(t, root.ExecuteContext(context.Background()))
}

func TestSync_RequiresUser(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"sync", "--library", t.TempDir(), "--dry-run"})

	err := root.ExecuteContext(context.Background())
	var cfgErr *common.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestSync_DryRunAgainstDirectory(t *testing.T) {
	dir := t.TempDir()
	library := filepath.Join(dir, "DCIM")
	require.NoError(t, os.MkdirAll(library, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(library, "a.jpg"), []byte("photo a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(library, "b.jpg"), []byte("photo b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(library, "notes.txt"), []byte("skip me"), 0o600))

	journalPath := filepath.Join(dir, "journal.json")

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{
		"sync",
		"--user", "u1",
		"--library", library,
		"--db", filepath.Join(dir, "photos.db"),
		"--journal", journalPath,
		"--geocode=false",
		"--dry-run",
	})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, "2 uploaded, 0 duplicates skipped, 0 failed", strings.TrimSpace(out.String()))

	// dry runs never move the checkpoint
	at, err := journal.New(journalPath).GetCheckpoint(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, at)
}

func TestReadOnlyCheckpoints(t *testing.T) {
	j := journal.New(filepath.Join(t.TempDir(), "journal.json"))
	ro := readOnlyCheckpoints{j}

	require.NoError(t, ro.SetCheckpoint(context.Background(), "u1", time.Now()))
	at, err := ro.GetCheckpoint(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, at)
}

func TestSync_CorruptJournalDoesNotStart(t *testing.T) {
	dir := t.TempDir()
	library := filepath.Join(dir, "DCIM")
	require.NoError(t, os.MkdirAll(library, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(library, "a.jpg"), []byte("photo a"), 0o600))

	journalPath := filepath.Join(dir, "journal.json")
	require.NoError(t, os.WriteFile(journalPath, []byte("{not json"), 0o600))

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{
		"sync",
		"--user", "u1",
		"--library", library,
		"--db", filepath.Join(dir, "photos.db"),
		"--journal", journalPath,
		"--geocode=false",
		"--dry-run",
	})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrCheckpointUnavailable)
	assert.Contains(t, err.Error(), "sync did not start")
}

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetLevel("info")
	})

	cfg := config.New()
	cfg.LogFormat = config.LogFormatJSON
	assert.NoError(t, setupLogging(cfg))

	cfg.LogFormat = "xml"
	var cfgErr *common.ConfigError
	assert.ErrorAs(t, setupLogging(cfg), &cfgErr)
}

func TestS3Config_CarriesChecksumSetting(t *testing.T) {
	c := config.New().S3
	c.Endpoint = "s3.us-west-004.backblazeb2.com"
	c.Bucket = "photos"
	c.DisableChecksums = true

	got := s3Config(c)
	assert.True(t, got.DisableChecksums)
	assert.Equal(t, "photos", got.Bucket)
	assert.True(t, got.UseSSL)
}
