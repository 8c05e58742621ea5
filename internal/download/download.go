package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const userAgent = "voskscribe/1"

// Options describe a single archive fetch.
type Options struct {
	URL            string
	Destination    string
	ExpectedSHA256 string
	Retries        int
	NoProgress     bool
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// Fetcher stores the resource at opts.URL under opts.Destination.
type Fetcher func(ctx context.Context, opts Options) error

// StatusError is a non-200 answer from the model host.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// ChecksumError means the archive arrived but its SHA-256 does not match the
// pinned value.
type ChecksumError struct {
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func (o Options) withDefaults() (Options, error) {
	if strings.TrimSpace(o.URL) == "" {
		return o, errors.New("download URL is required")
	}
	if strings.TrimSpace(o.Destination) == "" {
		return o, errors.New("destination path is required")
	}
	if o.Retries <= 0 {
		o.Retries = 3
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Minute}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	o.ExpectedSHA256 = strings.ToLower(strings.TrimSpace(o.ExpectedSHA256))
	return o, nil
}

// DownloadFile fetches opts.URL into opts.Destination. The file only appears
// at Destination once the body is complete and matches ExpectedSHA256, when
// one is given. Server errors and transport failures are retried; client
// errors and checksum mismatches are not.
func DownloadFile(ctx context.Context, opts Options) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(opts.Destination), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = fetchOnce(ctx, opts)
		if err == nil || attempt >= opts.Retries || !retryable(err) || ctx.Err() != nil {
			return err
		}

		opts.Logger.Warn("model download failed, retrying",
			zap.String("url", opts.URL),
			zap.Int("attempt", attempt),
			zap.Int("max", opts.Retries),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff(attempt)):
		}
	}
}

func retryable(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		return status.Code >= http.StatusInternalServerError || status.Code == http.StatusTooManyRequests
	}
	var checksum *ChecksumError
	return !errors.As(err, &checksum)
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt) * 300 * time.Millisecond
}

func fetchOnce(ctx context.Context, opts Options) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", opts.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: opts.URL, Code: resp.StatusCode}
	}

	part, err := os.CreateTemp(filepath.Dir(opts.Destination), filepath.Base(opts.Destination)+".*.part")
	if err != nil {
		return fmt.Errorf("create partial file: %w", err)
	}
	keep := false
	defer func() {
		if !keep {
			_ = part.Close()
			_ = os.Remove(part.Name())
		}
	}()

	hash := sha256.New()
	bar := archiveBar(opts.NoProgress, resp.ContentLength)
	if _, err := io.Copy(io.MultiWriter(part, hash, bar), resp.Body); err != nil {
		return fmt.Errorf("read archive body: %w", err)
	}
	if pb, ok := bar.(*progressbar.ProgressBar); ok {
		_ = pb.Finish()
	}

	if actual := hex.EncodeToString(hash.Sum(nil)); opts.ExpectedSHA256 != "" && actual != opts.ExpectedSHA256 {
		return &ChecksumError{Expected: opts.ExpectedSHA256, Actual: actual}
	}

	if err := part.Sync(); err != nil {
		return fmt.Errorf("sync partial file: %w", err)
	}
	if err := part.Close(); err != nil {
		return fmt.Errorf("close partial file: %w", err)
	}
	if err := os.Rename(part.Name(), opts.Destination); err != nil {
		_ = os.Remove(part.Name())
		return fmt.Errorf("move archive into place: %w", err)
	}
	keep = true
	return nil
}

// archiveBar renders archive progress on an interactive stderr and discards
// otherwise.
func archiveBar(noProgress bool, size int64) io.Writer {
	if noProgress || size <= 0 || !term.IsTerminal(int(os.Stderr.Fd())) {
		return io.Discard
	}
	return progressbar.NewOptions64(
		size,
		progressbar.OptionSetDescription("Downloading model"),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
}
