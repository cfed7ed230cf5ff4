package ports

import "context"

// Uploader pushes local artifacts (state file, audit db) to external storage.
// The no-op implementation is used when no credentials are configured.
type Uploader interface {
	Upload(ctx context.Context, localPath string) error
}

// NopUploader discards all uploads.
type NopUploader struct{}

func (NopUploader) Upload(context.Context, string) error { return nil }
