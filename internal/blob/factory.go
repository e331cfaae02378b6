package blob

import (
	"context"
	"fmt"
	"os"
	"strings"

	fsstore "origamicore/internal/infra/blob/fs"
	memorystore "origamicore/internal/infra/blob/memory"
	s3store "origamicore/internal/infra/blob/s3"
)

// S3Config configures the S3 backend.
type S3Config = s3store.Config

// Config selects and parameterises a blob backend.
type Config struct {
	Driver Driver   `mapstructure:"driver"`
	FSRoot string   `mapstructure:"fs_root"`
	S3     S3Config `mapstructure:"s3"`
}

// ConfigFromEnv reads the blob settings from the environment.
//
//	ORIGAMICORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	ORIGAMICORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	ORIGAMICORE_BLOB_S3_BUCKET, _REGION, _ENDPOINT, _PREFIX, _PATH_STYLE
//
// S3 credentials come from the standard AWS variables.
func ConfigFromEnv() Config {
	return Config{
		Driver: Driver(os.Getenv("ORIGAMICORE_BLOB_DRIVER")),
		FSRoot: os.Getenv("ORIGAMICORE_BLOB_FS_ROOT"),
		S3: S3Config{
			Bucket:    os.Getenv("ORIGAMICORE_BLOB_S3_BUCKET"),
			Region:    os.Getenv("ORIGAMICORE_BLOB_S3_REGION"),
			Endpoint:  os.Getenv("ORIGAMICORE_BLOB_S3_ENDPOINT"),
			Prefix:    os.Getenv("ORIGAMICORE_BLOB_S3_PREFIX"),
			PathStyle: strings.EqualFold(os.Getenv("ORIGAMICORE_BLOB_S3_PATH_STYLE"), "true"),
		},
	}
}

// Open returns the backend described by cfg. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		store, err := fsstore.New(cfg.FSRoot)
		if err != nil {
			return nil, fmt.Errorf("open fs blob store: %w", err)
		}
		return store, nil
	case DriverS3:
		store, err := s3store.New(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("open s3 blob store: %w", err)
		}
		return store, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// OpenFromEnv is Open with ConfigFromEnv.
func OpenFromEnv(ctx context.Context) (Store, error) {
	return Open(ctx, ConfigFromEnv())
}

// NewMemory returns an in-process store.
func NewMemory() Store { return memorystore.New(nil) }

// NewMockS3ForTests returns an S3 store backed by an in-process fake bucket.
func NewMockS3ForTests() Store { return s3store.NewMockForTests() }
