package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	repo           = "lull-app/lull"
	defaultFeedURL = "https://api.github.com/repos/" + repo + "/releases/latest"

	// feedURLEnv points the checker at an alternate release feed with the
	// same response shape.
	feedURLEnv = "UPDATE_FEED_URL"

	httpTimeout = 15 * time.Second
)

// Release describes an available update.
type Release struct {
	Version string
	URL     string
	Notes   string
}

type ghAsset struct {
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
}

type ghRelease struct {
	TagName string    `json:"tag_name"`
	Body    string    `json:"body"`
	Assets  []ghAsset `json:"assets"`
}

// Checker queries the release feed for builds newer than the running one.
type Checker struct {
	feedURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewChecker(logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	feedURL := os.Getenv(feedURLEnv)
	if feedURL == "" {
		feedURL = defaultFeedURL
	}
	return &Checker{
		feedURL: feedURL,
		client:  &http.Client{Timeout: httpTimeout},
		logger:  logger,
	}
}

// Check returns the latest release if it differs from currentVersion, or nil
// when already up to date. Development builds never see updates.
func (c *Checker) Check(ctx context.Context, currentVersion string) (*Release, error) {
	if currentVersion == "dev" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("check update: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check update: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check update: feed returned %d", resp.StatusCode)
	}

	var rel ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("check update: %w", err)
	}

	if rel.TagName == "" || rel.TagName == currentVersion {
		return nil, nil
	}

	c.logger.Info("update available",
		zap.String("current", currentVersion), zap.String("latest", rel.TagName))

	return &Release{
		Version: rel.TagName,
		URL:     assetURL(rel),
		Notes:   rel.Body,
	}, nil
}

// assetURL picks the asset built for this platform, falling back to the
// conventional download path when the feed lists no assets.
func assetURL(rel ghRelease) string {
	want := fmt.Sprintf("lull-%s-%s", runtime.GOOS, runtime.GOARCH)
	for _, a := range rel.Assets {
		if strings.HasPrefix(a.Name, want) {
			return a.URL
		}
	}
	return fmt.Sprintf("https://github.com/%s/releases/download/%s/%s", repo, rel.TagName, want)
}

// Download streams the release binary to a temp file, reporting progress as
// a 0..100 percentage when the feed provides a length. The caller passes the
// returned path to Apply once the user confirms.
func (c *Checker) Download(ctx context.Context, rel *Release, onProgress func(pct int)) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rel.URL, nil)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	tmpDir, err := os.MkdirTemp("", "lull-update-*")
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}

	path := filepath.Join(tmpDir, "lull")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}

	var written, lastPct int64
	lastPct = -1
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				_ = f.Close()
				return "", fmt.Errorf("download: %w", err)
			}
			written += int64(n)
			if onProgress != nil && resp.ContentLength > 0 {
				pct := written * 100 / resp.ContentLength
				if pct != lastPct {
					lastPct = pct
					onProgress(int(pct))
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = f.Close()
			return "", fmt.Errorf("download: %w", readErr)
		}
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}

	if err := os.Chmod(path, 0755); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}

	c.logger.Info("update downloaded",
		zap.String("version", rel.Version), zap.Int64("bytes", written))
	return path, nil
}

// Apply replaces the running executable with the downloaded binary. The
// caller should restart after Apply returns.
func Apply(path string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("resolve symlinks: %w", err)
	}

	// macOS quarantine
	if runtime.GOOS == "darwin" {
		_ = exec.Command("xattr", "-d", "com.apple.quarantine", path).Run()
	}

	// os.Rename fails across filesystems; fall back to copy.
	if err := os.Rename(path, exe); err != nil {
		if err := copyFile(path, exe); err != nil {
			return fmt.Errorf("replace binary: %w", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Chmod(0755)
}

// StripV removes a leading "v" prefix for display: "v1.2.3" -> "1.2.3".
func StripV(version string) string {
	return strings.TrimPrefix(version, "v")
}
