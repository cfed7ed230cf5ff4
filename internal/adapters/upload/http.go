package upload

// Mirrors run artifacts (state file, audit trail) to a remote folder.
// An HTTP PUT implementation backs ports.Uploader when UPLOAD_URL is
// configured, the no-op otherwise. Uploads are always best-effort; the
// driver swallows errors.

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alejandrodnm/updownbot/internal/ports"
)

// HTTPUploader PUTs files to baseURL/<filename>.
type HTTPUploader struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewFromEnv selects the uploader from environment credentials:
// UPLOAD_URL (required) and UPLOAD_TOKEN (optional bearer token).
// Without UPLOAD_URL the no-op uploader is returned.
func NewFromEnv() ports.Uploader {
	baseURL := strings.TrimSpace(os.Getenv("UPLOAD_URL"))
	if baseURL == "" {
		slog.Info("artifact upload disabled (UPLOAD_URL not set)")
		return ports.NopUploader{}
	}

	slog.Info("artifact upload enabled", "url", baseURL)
	return &HTTPUploader{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(os.Getenv("UPLOAD_TOKEN")),
	}
}

// Upload PUTs the file under its base name.
func (u *HTTPUploader) Upload(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("upload.Upload: open %q: %w", localPath, err)
	}
	defer f.Close()

	url := u.baseURL + "/" + filepath.Base(localPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return fmt.Errorf("upload.Upload: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload.Upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("upload.Upload: %s returned %d", url, resp.StatusCode)
	}
	return nil
}
