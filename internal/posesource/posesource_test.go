package posesource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/choreo/internal/pose"
)

const document = `{
  "video": "dance.mp4",
  "frames": [
    {"time": 0, "figures": [[[0, 0, 0.9], [1, 0, 0.9], [0, 1, 0.9]]]},
    {"time": 0.04, "figures": [null, [[2, 2, 0.8], [3, 2, 0.8], [2, 3, 0.8]]],
     "aligned_figures": [null, [[0, 0, 0.8], [1, 0, 0.8], [0, 1, 0.8]]]}
  ]
}`

func checkDocument(t *testing.T, doc *Document) {
	t.Helper()
	assert.Equal(t, "dance.mp4", doc.Video)
	require.Len(t, doc.Frames, 2)
	assert.Equal(t, 0.04, doc.Frames[1].Time)

	_, ok := doc.Frames[1].Pose(pose.Raw, 0)
	assert.False(t, ok)
	p, ok := doc.Frames[1].Pose(pose.Aligned, 1)
	require.True(t, ok)
	assert.Equal(t, pose.Keypoint{X: 1, Y: 0, Confidence: 0.8}, p[1])

	// frame 0 has no aligned list and falls back to raw
	p, ok = doc.Frames[0].Pose(pose.Aligned, 0)
	require.True(t, ok)
	assert.Len(t, p, 3)
}

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(document))
	require.NoError(t, err)
	checkDocument(t, doc)

	bare, err := Decode([]byte(`[{"time": 1, "figures": []}]`))
	require.NoError(t, err)
	assert.Empty(t, bare.Video)
	require.Len(t, bare.Frames, 1)
	assert.Equal(t, 1.0, bare.Frames[0].Time)

	_, err = Decode([]byte("  "))
	assert.Error(t, err)
	_, err = Decode([]byte(`{"frames": [{"time": 0, "figures": [[[1, 2]]]}]}`))
	assert.Error(t, err, "keypoint with two values")
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "poses.json")
	require.NoError(t, os.WriteFile(plain, []byte(document), 0o600))

	compressed, err := Compress([]byte(document))
	require.NoError(t, err)
	zst := filepath.Join(dir, "poses.json.zst")
	require.NoError(t, os.WriteFile(zst, compressed, 0o600))

	for _, path := range []string{plain, zst} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			doc, err := NewFileSource(path).Document(context.Background())
			require.NoError(t, err)
			checkDocument(t, doc)

			seq, err := NewFileSource(path).Load(context.Background())
			require.NoError(t, err)
			assert.Len(t, seq, 2)
		})
	}

	_, err = NewFileSource(filepath.Join(dir, "missing.json")).Load(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFileSource(plain).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func fastRetry() HTTPConfig {
	cfg := DefaultHTTPConfig()
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

func TestHTTPSource(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "zstd", r.Header.Get("Accept-Encoding"))
		body, err := Compress([]byte(document))
		if !assert.NoError(t, err) {
			return
		}
		w.Header().Set("Content-Encoding", "zstd")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	doc, err := NewHTTPSource(server.URL, fastRetry()).Document(context.Background())
	require.NoError(t, err)
	checkDocument(t, doc)
	assert.Equal(t, int32(2), calls.Load(), "retried once")
}

func TestHTTPSourceErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such video", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL, fastRetry()).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
