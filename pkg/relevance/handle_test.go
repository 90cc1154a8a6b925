package relevance

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRuleFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "relevance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestHandleScoreAndReload(t *testing.T) {
	path := writeRuleFile(t, t.TempDir(), testCfgYAML)

	h, err := LoadHandle(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.18, h.Threshold(), 1e-9)

	r := h.Score("Powell said the Fed may act; the Dow slipped.")
	assert.Greater(t, r.Score, 0.0)

	// Rewrite with a higher threshold and reload.
	raised := strings.Replace(testCfgYAML, "threshold: 0.18", "threshold: 0.95", 1)
	require.NoError(t, os.WriteFile(path, []byte(raised), 0o644))
	require.NoError(t, h.Reload())
	assert.InDelta(t, 0.95, h.Threshold(), 1e-9)

	r = h.Score("Powell said the Fed may act; the Dow slipped.")
	assert.Zero(t, r.Score, "raised threshold must neutralize the same text")
}

func TestHandleReloadKeepsEngineOnError(t *testing.T) {
	path := writeRuleFile(t, t.TempDir(), testCfgYAML)

	h, err := LoadHandle(path)
	require.NoError(t, err)

	// Break the file: a pattern that does not compile.
	broken := "anchors:\n  - id: x\n    category: hard\n    pattern: '(unclosed'\n"
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o644))

	require.Error(t, h.Reload())

	// The previous engine keeps serving.
	assert.InDelta(t, 0.18, h.Threshold(), 1e-9)
	r := h.Score("Powell said the Fed may act; the Dow slipped.")
	assert.Greater(t, r.Score, 0.0)
}

func TestHandleSwapIgnoresNil(t *testing.T) {
	eng := testEngine(t)
	h := NewHandle(eng)
	h.Swap(nil)
	assert.InDelta(t, 0.18, h.Threshold(), 1e-9)
}

func TestHotReloadEnabledGating(t *testing.T) {
	cases := []struct {
		name   string
		reload string
		appEnv string
		want   bool
	}{
		{"both set dev", "1", "dev", true},
		{"both set development", "1", "development", true},
		{"both set local", "1", "local", true},
		{"production env", "1", "production", false},
		{"flag off", "0", "dev", false},
		{"flag unset", "", "dev", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvHotReload, tc.reload)
			t.Setenv(EnvAppEnv, tc.appEnv)
			assert.Equal(t, tc.want, HotReloadEnabled())
		})
	}
}

// stubReloader fires onChange once per signal on ch.
type stubReloader struct{ ch chan struct{} }

func (s *stubReloader) Run(ctx context.Context, onChange func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ch:
			onChange()
		}
	}
}

func TestStartHotReloadAppliesChanges(t *testing.T) {
	t.Setenv(EnvHotReload, "1")
	t.Setenv(EnvAppEnv, "dev")

	path := writeRuleFile(t, t.TempDir(), testCfgYAML)
	h, err := LoadHandle(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stub := &stubReloader{ch: make(chan struct{}, 1)}
	h.StartHotReload(ctx, stub)

	raised := strings.Replace(testCfgYAML, "threshold: 0.18", "threshold: 0.42", 1)
	require.NoError(t, os.WriteFile(path, []byte(raised), 0o644))
	stub.ch <- struct{}{}

	require.Eventually(t, func() bool {
		return h.Threshold() > 0.41
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartHotReloadDisabledDoesNothing(t *testing.T) {
	t.Setenv(EnvHotReload, "0")
	t.Setenv(EnvAppEnv, "dev")

	path := writeRuleFile(t, t.TempDir(), testCfgYAML)
	h, err := LoadHandle(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stub := &stubReloader{ch: make(chan struct{}, 1)}
	h.StartHotReload(ctx, stub)
	stub.ch <- struct{}{}

	time.Sleep(50 * time.Millisecond)
	assert.InDelta(t, 0.18, h.Threshold(), 1e-9)
}

func TestPollReloaderFiresOnMtimeChange(t *testing.T) {
	path := writeRuleFile(t, t.TempDir(), testCfgYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{}, 1)
	p := &PollReloader{Path: path, Interval: 10 * time.Millisecond}
	go p.Run(ctx, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	// Push the mtime forward well past the baseline.
	future := time.Now().Add(10 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a reload trigger after the mtime changed")
	}
}
