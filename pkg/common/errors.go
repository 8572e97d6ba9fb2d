package common

import (
	"errors"
	"fmt"
)

// Batch-fatal conditions: a sync run does not start when one of these occurs.
var (
	ErrNoUser                = errors.New("no authenticated user")
	ErrCheckpointUnavailable = errors.New("sync checkpoint store unavailable")
)

// ErrDuplicatePhoto is returned by stores when a photo with the same content
// hash already exists for the user.
var ErrDuplicatePhoto = errors.New("photo already exists")

// Item failure stages
const (
	StageRead   = "read"
	StageHash   = "hash"
	StageUpload = "upload"
)

// ItemError is a per-item sync failure. It never aborts the batch.
type ItemError struct {
	Stage string
	Path  string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func NewItemError(stage, path string, err error) error {
	return &ItemError{Stage: stage, Path: path, Err: err}
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Configuration Error: %s", e.Message)
}

func NewConfigError(message string) error {
	return &ConfigError{Message: message}
}

// IsBatchFatal reports whether err prevents a sync run from starting.
func IsBatchFatal(err error) bool {
	return errors.Is(err, ErrNoUser) || errors.Is(err, ErrCheckpointUnavailable)
}
