package compress

import "context"

// Bundler defines the interface for packing finished playlist items into a
// single archive.
type Bundler interface {
	Bundle(ctx context.Context, archivePath string, files []string) (*Result, error)
}
