package nginst

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

func newHttpClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}

	// Default is 10s; slow mirrors need longer.
	transport.TLSHandshakeTimeout = 30 * time.Second

	return &http.Client{
		Transport: transport,
		Timeout:   300 * time.Second, // 5 min total timeout for large downloads
	}
}

// Fetcher downloads missing dependency files into the workspace.
type Fetcher struct {
	Client   *http.Client
	S3       objectGetter // created on first s3:// URL when nil
	S3Config S3Settings
	Progress ProgressFunc
	Bar      bool // draw a progress bar on stderr
}

// fetch downloads sourceURL to destPath unless destPath already exists.
func (f *Fetcher) fetch(ctx context.Context, destPath, sourceURL string) error {
	file := filepath.Base(destPath)
	if _, err := os.Stat(destPath); err == nil {
		debugf("Already present: %s\n", destPath)
		return nil
	}
	if sourceURL == "" {
		return &MissingSourceError{File: file}
	}

	if err := f.download(ctx, destPath, sourceURL); err != nil {
		return &DownloadError{File: file, URL: sourceURL, Err: err}
	}
	return nil
}

// fetchDep fetches d and verifies its checksum when one is set.
func (f *Fetcher) fetchDep(ctx context.Context, d Dependency) error {
	_, statErr := os.Stat(d.Path)
	if err := f.fetch(ctx, d.Path, d.URL); err != nil {
		return err
	}
	if statErr == nil {
		// Pre-populated files are trusted as-is.
		return nil
	}
	if err := verifyChecksum(d.Path, d.Checksum); err != nil {
		_ = os.Remove(d.Path)
		return &DownloadError{File: d.File, URL: d.URL, Err: err}
	}
	return nil
}

// download streams the resource into a .part file and renames it into
// place, so an interrupted transfer never looks like a finished one.
func (f *Fetcher) download(ctx context.Context, destPath, sourceURL string) error {
	body, size, err := f.open(ctx, sourceURL)
	if err != nil {
		return err
	}
	defer body.Close()

	partPath := destPath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", partPath, err)
	}

	pw := newProgressWriter(size, f.Progress)
	bar := newDownloadBar(f.Bar, size, filepath.Base(destPath))
	_, copyErr := io.Copy(io.MultiWriter(out, pw, bar), body)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(partPath)
		return fmt.Errorf("failed to write to destination file: %w", err)
	}
	pw.finish()

	if err := os.Rename(partPath, destPath); err != nil {
		_ = os.Remove(partPath)
		return fmt.Errorf("failed to move %s into place: %w", partPath, err)
	}
	return nil
}

// open starts a transfer and returns the body and its size (-1 if unknown).
func (f *Fetcher) open(ctx context.Context, sourceURL string) (io.ReadCloser, int64, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid URL %q: %w", sourceURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		client := f.Client
		if client == nil {
			client = newHttpClient()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
		if err != nil {
			return nil, 0, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, 0, fmt.Errorf("http get failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, 0, fmt.Errorf("download failed with status: %s", resp.Status)
		}
		return resp.Body, resp.ContentLength, nil
	case "s3":
		if f.S3 == nil {
			client, err := newS3Client(ctx, f.S3Config)
			if err != nil {
				return nil, 0, err
			}
			f.S3 = client
		}
		return openS3Object(ctx, f.S3, u)
	default:
		return nil, 0, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
}
