package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/androfit/agent/internal/logging"
	"github.com/androfit/agent/internal/metrics"
)

// Outcome of a single artifact download.
type Outcome string

const (
	// OutcomeDownloaded means the artifact was fetched and verified.
	OutcomeDownloaded Outcome = "downloaded"
	// OutcomeSkipped means a valid copy was already on disk.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the fetch or verification failed.
	OutcomeFailed Outcome = "failed"
)

// Result is the per-artifact report.
type Result struct {
	Name    string
	Outcome Outcome
	Bytes   int64
	Err     error
}

// Summary is the report for a whole manifest run.
type Summary struct {
	Results []Result
}

// Failed returns how many artifacts could not be downloaded.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == OutcomeFailed {
			n++
		}
	}
	return n
}

// Downloader fetches manifest artifacts into the data directory.
type Downloader struct {
	dataDir string
	httpc   *http.Client
	store   ObjectStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) { d.httpc = c }
}

// WithObjectStore enables s3:// URLs.
func WithObjectStore(store ObjectStore) DownloaderOption {
	return func(d *Downloader) { d.store = store }
}

// WithMetrics enables download instrumentation.
func WithMetrics(m *metrics.Metrics) DownloaderOption {
	return func(d *Downloader) { d.metrics = m }
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) { d.logger = logger }
}

// NewDownloader creates a downloader writing into dataDir.
func NewDownloader(dataDir string, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		dataDir: dataDir,
		httpc:   &http.Client{Timeout: 5 * time.Minute},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches every artifact in the manifest. Failures are collected
// per artifact, never aborting the rest of the run.
func (d *Downloader) Download(ctx context.Context, m *Manifest) Summary {
	summary := Summary{Results: make([]Result, 0, len(m.Artifacts))}

	for _, artifact := range m.Artifacts {
		result := d.downloadOne(ctx, artifact)
		summary.Results = append(summary.Results, result)

		switch result.Outcome {
		case OutcomeDownloaded:
			d.logger.Info("artifact downloaded",
				"name", artifact.Name, "bytes", result.Bytes)
		case OutcomeSkipped:
			d.logger.Info("artifact up to date", "name", artifact.Name)
		case OutcomeFailed:
			d.logger.Warn("artifact download failed",
				"name", artifact.Name, "err", result.Err)
		}
		d.count(result)
	}

	return summary
}

func (d *Downloader) count(r Result) {
	if d.metrics == nil {
		return
	}
	switch r.Outcome {
	case OutcomeDownloaded:
		d.metrics.AssetsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
		d.metrics.AssetBytes.Add(float64(r.Bytes))
	case OutcomeSkipped:
		d.metrics.AssetsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
	case OutcomeFailed:
		d.metrics.AssetsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	}
}

func (d *Downloader) downloadOne(ctx context.Context, artifact Artifact) Result {
	result := Result{Name: artifact.Name}
	dest := filepath.Join(d.dataDir, filepath.FromSlash(artifact.destination()))

	if artifact.SHA256 != "" {
		ok, err := fileMatches(dest, artifact.SHA256)
		if err != nil {
			result.Outcome = OutcomeFailed
			result.Err = err
			return result
		}
		if ok {
			result.Outcome = OutcomeSkipped
			return result
		}
	}

	body, err := d.open(ctx, artifact.URL)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}
	defer body.Close()

	n, err := d.writeVerified(body, dest, artifact.SHA256)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}

	result.Outcome = OutcomeDownloaded
	result.Bytes = n
	return result
}

// open dispatches on the URL scheme.
func (d *Downloader) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := d.httpc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch failed: unexpected status %d", resp.StatusCode)
		}
		return resp.Body, nil

	case "s3":
		if d.store == nil {
			return nil, fmt.Errorf("s3 url %q but no object store configured", rawURL)
		}
		return d.store.Get(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))

	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

// writeVerified streams src to dest through a .partial file, checking the
// digest before the rename so a bad download never lands on the final path.
func (d *Downloader) writeVerified(src io.Reader, dest, wantSHA string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	partial := dest + ".partial"
	f, err := os.Create(partial)
	if err != nil {
		return 0, fmt.Errorf("failed to create partial file: %w", err)
	}

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, hash), src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(partial)
		return 0, fmt.Errorf("download interrupted: %w", err)
	}

	if wantSHA != "" {
		got := hex.EncodeToString(hash.Sum(nil))
		if !strings.EqualFold(got, wantSHA) {
			os.Remove(partial)
			return 0, fmt.Errorf("checksum mismatch: want %s, got %s", wantSHA, got)
		}
	}

	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return 0, fmt.Errorf("failed to finalize artifact: %w", err)
	}
	return n, nil
}

// fileMatches reports whether dest exists with the wanted digest.
func fileMatches(dest, wantSHA string) (bool, error) {
	f, err := os.Open(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existing artifact: %w", err)
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return false, fmt.Errorf("failed to hash existing artifact: %w", err)
	}
	return strings.EqualFold(hex.EncodeToString(hash.Sum(nil)), wantSHA), nil
}
