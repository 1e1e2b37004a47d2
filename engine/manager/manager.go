// Package manager maintains the preset catalog: an ordered list of preset
// locators with a cursor, random selection, navigation history, directory
// scanning, and a safe loader that never leaves the engine without a
// working preset.
package manager

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/all3f0r1/OneDrop/engine/preset"
)

// Manager owns the preset catalog and cursor. It is used from the frame
// thread only.
type Manager struct {
	presets []string
	cursor  int
	history *History[string]
	rng     *rand.Rand

	maxRetries   int
	retryBackoff time.Duration
	scanWorkers  int
	readFile     func(string) ([]byte, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithSeed seeds random selection for reproducible tests.
func WithSeed(seed int64) Option {
	return func(m *Manager) { m.rng = rand.New(rand.NewSource(seed)) }
}

// WithMaxRetries bounds the retries SafeLoad makes after a failed read
// before substituting the fallback preset; n retries allow up to n+1 read
// attempts. Defaults to 3.
func WithMaxRetries(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.maxRetries = n
		}
	}
}

// WithHistorySize bounds the navigation history. Defaults to 100.
func WithHistorySize(n int) Option {
	return func(m *Manager) { m.history = NewHistory[string](n) }
}

// WithScanWorkers sets the validation pool size for ScanDirectory.
func WithScanWorkers(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.scanWorkers = n
		}
	}
}

// New creates an empty Manager.
func New(options ...Option) *Manager {
	m := &Manager{
		cursor:       -1,
		history:      NewHistory[string](100),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		maxRetries:   3,
		retryBackoff: 100 * time.Millisecond,
		scanWorkers:  max(runtime.NumCPU()-1, 1),
		readFile:     os.ReadFile,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Add appends preset locators to the catalog. The first Add positions the
// cursor on the first entry.
func (m *Manager) Add(paths ...string) {
	m.presets = append(m.presets, paths...)
	if m.cursor < 0 && len(m.presets) > 0 {
		m.cursor = 0
	}
}

// Len returns the catalog size.
func (m *Manager) Len() int { return len(m.presets) }

// Current returns the locator under the cursor.
func (m *Manager) Current() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.presets) {
		return "", false
	}
	return m.presets[m.cursor], true
}

// Next advances the cursor with wraparound and records the selection.
func (m *Manager) Next() (string, bool) {
	if len(m.presets) == 0 {
		return "", false
	}
	m.cursor = (m.cursor + 1) % len(m.presets)
	return m.record()
}

// Prev steps the cursor back with wraparound and records the selection.
func (m *Manager) Prev() (string, bool) {
	if len(m.presets) == 0 {
		return "", false
	}
	m.cursor--
	if m.cursor < 0 {
		m.cursor = len(m.presets) - 1
	}
	return m.record()
}

// Random selects uniformly among all entries except the current one and
// records the selection. With a single entry it returns that entry.
func (m *Manager) Random() (string, bool) {
	switch len(m.presets) {
	case 0:
		return "", false
	case 1:
		m.cursor = 0
		return m.record()
	}
	next := m.rng.Intn(len(m.presets) - 1)
	if next >= m.cursor {
		next++
	}
	m.cursor = next
	return m.record()
}

// HistoryBack navigates to the previously selected preset, moving the
// cursor to match when the locator is still in the catalog.
func (m *Manager) HistoryBack() (string, bool) {
	path, ok := m.history.Back()
	if ok {
		m.seek(path)
	}
	return path, ok
}

// HistoryForward navigates forward after HistoryBack.
func (m *Manager) HistoryForward() (string, bool) {
	path, ok := m.history.Forward()
	if ok {
		m.seek(path)
	}
	return path, ok
}

func (m *Manager) record() (string, bool) {
	path := m.presets[m.cursor]
	m.history.Push(path)
	return path, true
}

func (m *Manager) seek(path string) {
	for i, p := range m.presets {
		if p == path {
			m.cursor = i
			return
		}
	}
}

// SafeLoad reads and parses the preset at path. Transient read failures are
// retried with exponential backoff (100 ms, 200 ms, 400 ms, ...); when the
// retries are exhausted or the file does not parse, the compiled-in default
// preset is returned instead. SafeLoad never fails.
func (m *Manager) SafeLoad(path string) *preset.Preset {
	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		data, err := m.readFile(path)
		if err != nil {
			lastErr = err
			if attempt < m.maxRetries {
				time.Sleep(m.retryBackoff * (1 << attempt))
			}
			continue
		}
		p, err := preset.Parse(string(data))
		if err != nil {
			// A parse failure is not transient; fall back immediately.
			log.Printf("manager: preset %s failed to parse: %v; using default preset", path, err)
			return preset.Default()
		}
		return p
	}
	log.Printf("manager: preset %s unreadable after %d attempts: %v; using default preset",
		path, m.maxRetries+1, lastErr)
	return preset.Default()
}

// Validate reads and parses path, reporting the first error.
func (m *Manager) Validate(path string) error {
	data, err := m.readFile(path)
	if err != nil {
		return fmt.Errorf("manager: read %s: %w", path, err)
	}
	if _, err := preset.Parse(string(data)); err != nil {
		return fmt.Errorf("manager: parse %s: %w", path, err)
	}
	return nil
}

// ScanDirectory finds .milk files under dir, validates each on a bounded
// worker pool, and adds the valid ones to the catalog in sorted order.
// Invalid files are logged and skipped. Returns the number added.
func (m *Manager) ScanDirectory(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("manager: scan %s: %w", dir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".milk") {
			continue
		}
		candidates = append(candidates, filepath.Join(dir, entry.Name()))
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	pool := worker.NewDynamicWorkerPool(m.scanWorkers, 256, time.Second)
	valid := make([]bool, len(candidates))

	var wg sync.WaitGroup
	for i, path := range candidates {
		wg.Add(1)
		i, path := i, path
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				if err := m.Validate(path); err != nil {
					log.Printf("manager: skipping invalid preset: %v", err)
					return nil, nil
				}
				valid[i] = true
				return nil, nil
			},
		})
	}
	wg.Wait()

	var added []string
	for i, ok := range valid {
		if ok {
			added = append(added, candidates[i])
		}
	}
	sort.Strings(added)
	m.Add(added...)

	log.Printf("manager: found %d valid presets in %s", len(added), dir)
	return len(added), nil
}
