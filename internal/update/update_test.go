package update

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedServer(t *testing.T, tag, assetURL string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"tag_name": %q,
			"body": "bug fixes",
			"assets": [{"name": "lull-%s-%s", "browser_download_url": %q}]
		}`, tag, runtime.GOOS, runtime.GOARCH, assetURL)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestChecker(t *testing.T, feedURL string) *Checker {
	t.Helper()
	t.Setenv(feedURLEnv, feedURL)
	return NewChecker(nil)
}

func TestCheckNewRelease(t *testing.T) {
	server := feedServer(t, "v2.0.0", "http://example.invalid/bin")
	checker := newTestChecker(t, server.URL)

	rel, err := checker.Check(context.Background(), "v1.0.0")
	require.NoError(t, err)
	require.NotNil(t, rel)
	assert.Equal(t, "v2.0.0", rel.Version)
	assert.Equal(t, "http://example.invalid/bin", rel.URL)
	assert.Equal(t, "bug fixes", rel.Notes)
}

func TestCheckUpToDate(t *testing.T) {
	server := feedServer(t, "v1.0.0", "http://example.invalid/bin")
	checker := newTestChecker(t, server.URL)

	rel, err := checker.Check(context.Background(), "v1.0.0")
	require.NoError(t, err)
	assert.Nil(t, rel)
}

func TestCheckDevBuildNeverUpdates(t *testing.T) {
	checker := newTestChecker(t, "http://127.0.0.1:1/unreachable")

	rel, err := checker.Check(context.Background(), "dev")
	require.NoError(t, err)
	assert.Nil(t, rel)
}

func TestCheckFeedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	checker := newTestChecker(t, server.URL)

	_, err := checker.Check(context.Background(), "v1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestDownloadReportsProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("lull"), 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	checker := newTestChecker(t, server.URL)
	rel := &Release{Version: "v2.0.0", URL: server.URL + "/bin"}

	var pcts []int
	path, err := checker.Download(context.Background(), rel, func(pct int) {
		pcts = append(pcts, pct)
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(path) })

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	require.NotEmpty(t, pcts)
	assert.Equal(t, 100, pcts[len(pcts)-1])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestPollerAnnouncesOnce(t *testing.T) {
	server := feedServer(t, "v2.0.0", "http://example.invalid/bin")
	checker := newTestChecker(t, server.URL)

	poller := NewPoller(checker, "v1.0.0", nil)
	poller.delay = time.Millisecond
	poller.interval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	poller.Start(ctx)

	select {
	case ev := <-poller.Events():
		assert.Equal(t, KindAvailable, ev.Kind)
		require.NotNil(t, ev.Release)
		assert.Equal(t, "v2.0.0", ev.Release.Version)
	case <-ctx.Done():
		t.Fatal("no event before timeout")
	}

	// Subsequent polls for the same version stay quiet.
	select {
	case ev := <-poller.Events():
		t.Fatalf("unexpected second event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPollerDownloadEmitsDownloaded(t *testing.T) {
	payload := []byte("binary contents")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	checker := newTestChecker(t, server.URL)
	poller := NewPoller(checker, "v1.0.0", nil)
	rel := &Release{Version: "v2.0.0", URL: server.URL + "/bin"}

	poller.Download(context.Background(), rel)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-poller.Events():
			if ev.Kind == KindProgress {
				continue
			}
			require.Equal(t, KindDownloaded, ev.Kind)
			require.NotEmpty(t, ev.Path)
			t.Cleanup(func() { _ = os.RemoveAll(ev.Path) })
			data, err := os.ReadFile(ev.Path)
			require.NoError(t, err)
			assert.Equal(t, payload, data)
			return
		case <-deadline:
			t.Fatal("no downloaded event before timeout")
		}
	}
}

func TestStripV(t *testing.T) {
	assert.Equal(t, "1.2.3", StripV("v1.2.3"))
	assert.Equal(t, "1.2.3", StripV("1.2.3"))
}
