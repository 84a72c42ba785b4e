package media

import (
	"context"
	"io"
)

// AssetStorage persists media content and returns its public location.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}
