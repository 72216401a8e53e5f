// Package files holds the attachment store drivers.
package files

import (
	"context"
	"io/fs"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
)

// Drivers
const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// ErrNotExist is returned when reading a missing key.
var ErrNotExist = fs.ErrNotExist

// New returns the store selected by conf.Storage.Driver.
func New(ctx context.Context, conf *core.Config) (core.FileStore, error) {
	switch conf.Storage.Driver {
	case DriverLocal, "":
		return NewLocalStore(conf.Storage.Dir)
	case DriverS3:
		return NewS3Store(ctx, conf.Storage.S3)
	default:
		return nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}
