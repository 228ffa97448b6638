package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// transcript records one generation call (prompt and raw response) to its own file.
type transcript struct {
	mu   sync.Mutex
	file *os.File
}

func openTranscript(dir string, count int, model string) (*transcript, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}

	started := time.Now()
	name := filepath.Join(dir, fmt.Sprintf("generation-%s.log", started.Format("20060102T150405.000000000")))
	file, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create transcript file: %w", err)
	}

	t := &transcript{file: file}
	t.logf("=== Question Generation ===\n")
	t.logf("Model: %s\n", model)
	t.logf("Questions requested: %d\n", count)
	t.logf("Started: %s\n\n", started.Format(time.RFC3339))
	return t, nil
}

func (t *transcript) logf(format string, args ...interface{}) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.file, "[%s] %s", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
}

func (t *transcript) request(prompt string) {
	t.logf("=== REQUEST ===\n%s\n\n", prompt)
}

func (t *transcript) response(raw string) {
	t.logf("=== RESPONSE ===\n%s\n\n", raw)
}

func (t *transcript) failure(err error) {
	t.logf("=== FAILED ===\n%v\n\n", err)
}

func (t *transcript) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}
