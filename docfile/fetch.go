package docfile

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	downloadTimeout = 30 * time.Second
	userAgent       = "Mozilla/5.0"
)

// Fetcher downloads a knowledge document to a transient local file and
// decodes it. The transient file never outlives the Fetch call.
type Fetcher struct {
	dir      string
	client   *http.Client
	registry *Registry
	logger   *zap.Logger
}

func NewFetcher(dir string, registry *Registry, logger *zap.Logger) *Fetcher {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		dir: dir,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: downloadTimeout,
				}).DialContext,
				ResponseHeaderTimeout: downloadTimeout,
			},
			Timeout: 2 * downloadTimeout,
		},
		registry: registry,
		logger:   logger,
	}
}

// Fetch downloads url, decodes it according to fileType (or the url's
// extension when fileType is blank), and returns the text. Blank urls and
// zero-length transfers yield empty content without error; transport and
// decode failures are returned for the caller to degrade on. Either way
// the local copy is removed before returning.
func (f *Fetcher) Fetch(ctx context.Context, id int64, url, fileType string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", nil
	}

	path, err := f.download(ctx, id, url)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", nil
	}
	defer f.remove(path)

	decoder := f.registry.Resolve(fileType, path)
	content, err := decoder.Decode(path)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	f.logger.Debug("decoded knowledge file",
		zap.Int64("document_id", id),
		zap.Int("content_length", len(content)))
	return content, nil
}

// download returns the transient path, or "" when the remote payload is
// declared or observed to be empty. Partial files are removed before an
// error or empty result is returned.
func (f *Fetcher) download(ctx context.Context, id int64, url string) (string, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("download %s: status %s", url, resp.Status)
	}
	if resp.ContentLength == 0 {
		f.logger.Debug("remote file declared empty", zap.Int64("document_id", id), zap.String("url", url))
		return "", nil
	}

	// Collision-free across concurrent requests: document id + timestamp.
	name := fmt.Sprintf("knowledge_%d_%d%s", id, time.Now().UnixNano(), fileExt(url))
	path := filepath.Join(f.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create transient file: %w", err)
	}

	written, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()

	if copyErr != nil {
		f.remove(path)
		return "", fmt.Errorf("write transient file: %w", copyErr)
	}
	if closeErr != nil {
		f.remove(path)
		return "", fmt.Errorf("close transient file: %w", closeErr)
	}
	if written == 0 {
		f.remove(path)
		return "", nil
	}

	f.logger.Debug("downloaded knowledge file",
		zap.Int64("document_id", id),
		zap.String("path", path),
		zap.Int64("bytes", written))
	return path, nil
}

// remove deletes a transient file. Deletion failure is logged, never
// escalated.
func (f *Fetcher) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("delete transient file", zap.String("path", path), zap.Error(err))
	}
}

// fileExt returns the url's extension with any query string stripped.
func fileExt(url string) string {
	idx := strings.LastIndex(url, ".")
	if idx < 0 {
		return ""
	}
	ext := url[idx:]
	if q := strings.Index(ext, "?"); q >= 0 {
		ext = ext[:q]
	}
	return ext
}
