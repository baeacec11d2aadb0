package images

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendFile = "file"
	BackendS3   = "s3"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Dir     string
	S3      S3Config
}

// Open builds the Store named by opts.Backend. An empty backend means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir)
	case BackendS3:
		return NewS3Store(ctx, opts.S3)
	default:
		return nil, fmt.Errorf("unknown image backend %q", opts.Backend)
	}
}
