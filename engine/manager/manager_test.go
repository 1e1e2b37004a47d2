package manager

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validPreset = "MILKDROP_PRESET_VERSION=201\n[preset00]\nzoom=1.0\nper_frame_1=a = 1\n"

func TestNavigationWraps(t *testing.T) {
	m := New(WithSeed(1))
	m.Add("a.milk", "b.milk", "c.milk")

	if cur, _ := m.Current(); cur != "a.milk" {
		t.Fatalf("current = %q, want a.milk", cur)
	}
	if p, _ := m.Next(); p != "b.milk" {
		t.Errorf("next = %q", p)
	}
	if p, _ := m.Next(); p != "c.milk" {
		t.Errorf("next = %q", p)
	}
	if p, _ := m.Next(); p != "a.milk" {
		t.Errorf("next did not wrap: %q", p)
	}
	if p, _ := m.Prev(); p != "c.milk" {
		t.Errorf("prev did not wrap: %q", p)
	}
}

func TestEmptyCatalog(t *testing.T) {
	m := New()
	if _, ok := m.Next(); ok {
		t.Error("Next on empty catalog reported ok")
	}
	if _, ok := m.Random(); ok {
		t.Error("Random on empty catalog reported ok")
	}
	if _, ok := m.Current(); ok {
		t.Error("Current on empty catalog reported ok")
	}
}

func TestRandomExcludesCurrent(t *testing.T) {
	m := New(WithSeed(42))
	m.Add("a.milk", "b.milk", "c.milk")

	for i := 0; i < 50; i++ {
		before, _ := m.Current()
		after, ok := m.Random()
		if !ok {
			t.Fatal("Random failed")
		}
		if after == before {
			t.Fatalf("Random returned the current preset %q", before)
		}
	}
}

func TestHistoryBackForward(t *testing.T) {
	m := New(WithSeed(1))
	m.Add("a.milk", "b.milk", "c.milk")

	m.Next() // b
	m.Next() // c

	if p, ok := m.HistoryBack(); !ok || p != "b.milk" {
		t.Errorf("back = %q, %v", p, ok)
	}
	if cur, _ := m.Current(); cur != "b.milk" {
		t.Errorf("cursor did not follow history: %q", cur)
	}
	if p, ok := m.HistoryForward(); !ok || p != "c.milk" {
		t.Errorf("forward = %q, %v", p, ok)
	}
}

func TestSafeLoadValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.milk")
	if err := os.WriteFile(path, []byte(validPreset), 0o644); err != nil {
		t.Fatal(err)
	}

	m := New()
	p := m.SafeLoad(path)
	if p.Parameters.Zoom != 1.0 || len(p.PerFrame) != 1 {
		t.Errorf("loaded preset wrong: %+v", p)
	}
}

func TestSafeLoadMissingFileFallsBack(t *testing.T) {
	m := New(WithMaxRetries(0))
	p := m.SafeLoad("does-not-exist.milk")
	if len(p.PerFrame) == 0 {
		t.Fatal("fallback preset has no per-frame block")
	}
	if p.PerFrame[0] != "wave_r = 0.5 + 0.5*sin(time*1.1)" {
		t.Errorf("fallback per_frame_1 = %q", p.PerFrame[0])
	}
}

func TestSafeLoadRetriesWithBackoff(t *testing.T) {
	attempts := 0
	m := New(WithMaxRetries(2))
	m.retryBackoff = time.Millisecond
	m.readFile = func(string) ([]byte, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return []byte(validPreset), nil
	}

	p := m.SafeLoad("flaky.milk")
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if p.Parameters.Zoom != 1.0 {
		t.Error("retried load did not return the real preset")
	}
}

func TestSafeLoadUnparsableFallsBackImmediately(t *testing.T) {
	attempts := 0
	m := New(WithMaxRetries(3))
	m.readFile = func(string) ([]byte, error) {
		attempts++
		return []byte("MILKDROP_PRESET_VERSION=nope\n"), nil
	}

	p := m.SafeLoad("bad.milk")
	if attempts != 1 {
		t.Errorf("parse failure retried %d times", attempts)
	}
	if len(p.PerFrame) == 0 {
		t.Error("fallback not substituted")
	}
}

func TestScanDirectoryFiltersInvalid(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"good1.milk":  validPreset,
		"good2.milk":  validPreset,
		"broken.milk": "MILKDROP_PRESET_VERSION=nope\n",
		"notes.txt":   "not a preset",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	m := New(WithScanWorkers(2))
	n, err := m.ScanDirectory(dir)
	if err != nil {
		t.Fatalf("ScanDirectory failed: %v", err)
	}
	if n != 2 || m.Len() != 2 {
		t.Errorf("added %d (len %d), want 2", n, m.Len())
	}
	if cur, _ := m.Current(); filepath.Base(cur) != "good1.milk" {
		t.Errorf("current = %q, want good1.milk first in sorted order", cur)
	}
}

func TestHistoryTruncatesForwardTail(t *testing.T) {
	h := NewHistory[int](10)
	h.Push(1)
	h.Push(2)
	h.Push(3)
	h.Back() // at 2
	h.Push(4)

	if h.CanGoForward() {
		t.Error("forward tail survived a push")
	}
	if v, _ := h.Current(); v != 4 {
		t.Errorf("current = %d, want 4", v)
	}
	if v, _ := h.Back(); v != 2 {
		t.Errorf("back = %d, want 2", v)
	}
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory[int](3)
	for i := 1; i <= 5; i++ {
		h.Push(i)
	}
	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}
	h.Back()
	h.Back()
	if v, _ := h.Current(); v != 3 {
		t.Errorf("oldest = %d, want 3", v)
	}
}
