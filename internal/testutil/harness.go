package testutil

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"

	"github.com/vk/pctransport/internal/app"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an application run.
type HarnessResult struct {
	LogOutput string
	ErrOutput string
	Err       error
}

// RunApp runs the application with cfg, capturing logs and stderr output.
// Set PCT_TEST_LOGS=true to echo the captured logs.
func RunApp(t *testing.T, cfg *app.Config, opts ...app.Option) *HarnessResult {
	t.Helper()

	logs := &SafeBuffer{}
	errs := &SafeBuffer{}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	a := app.NewApp(logs, errs, cfg, opts...)
	err := a.Run(context.Background())

	if os.Getenv("PCT_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}

	return &HarnessResult{
		LogOutput: logs.String(),
		ErrOutput: errs.String(),
		Err:       err,
	}
}
