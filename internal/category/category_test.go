package category_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fakeyudi/allot/internal/allocation"
	"github.com/fakeyudi/allot/internal/category"
)

const sample = `
categories:
  - id: deep
    name: Deep work
    priority: 1
    min: 30
    weight: 3
  - id: email
    priority: 3
    max: 20
  - id: review
    priority: 2
    weight: 0
`

func TestParseSample(t *testing.T) {
	snap, err := category.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(snap.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", snap.Warnings)
	}
	cs := snap.Constraints()
	if len(cs) != 3 {
		t.Fatalf("want 3 constraints, got %d", len(cs))
	}
	if cs[0].ID != "deep" || cs[0].Weight != 3 || *cs[0].MinDuration != 30 || cs[0].MaxDuration != nil {
		t.Errorf("deep: %+v", cs[0])
	}
	if cs[1].Weight != 1 {
		t.Errorf("omitted weight should default to 1, got %v", cs[1].Weight)
	}
	if cs[2].Weight != 0 {
		t.Errorf("explicit zero weight must be kept, got %v", cs[2].Weight)
	}
	labels := snap.Labels()
	if labels["deep"] != "Deep work" || labels["email"] != "email" {
		t.Errorf("labels: %v", labels)
	}

	r := allocation.Calculate(cs, 120)
	if !r.IsValid || r.Minutes("email") > 20 || r.Minutes("deep") < 30 {
		t.Errorf("unexpected plan from sample: %+v", r)
	}
}

func TestParseCorrectsOutOfRangeValues(t *testing.T) {
	snap, err := category.Parse([]byte(`
categories:
  - id: a
    priority: 9
    weight: -2
  - id: b
    priority: 0
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if snap.Categories[0].Priority != 5 || snap.Categories[1].Priority != 1 {
		t.Errorf("priorities should be clamped to 1-5: %+v", snap.Categories)
	}
	if *snap.Categories[0].Weight != 0 {
		t.Errorf("negative weight should become 0, got %v", *snap.Categories[0].Weight)
	}
	if len(snap.Warnings) != 3 {
		t.Errorf("want 3 warnings, got %v", snap.Warnings)
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := map[string]string{
		"missing id":   "categories:\n  - priority: 1\n",
		"duplicate id": "categories:\n  - id: a\n    priority: 1\n  - id: a\n    priority: 2\n",
		"min over max": "categories:\n  - id: a\n    priority: 1\n    min: 30\n    max: 10\n",
		"negative min": "categories:\n  - id: a\n    priority: 1\n    min: -5\n",
		"bad yaml":     "categories: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := category.Parse([]byte(doc)); err == nil {
				t.Errorf("expected an error for %q", doc)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := category.Load(filepath.Join(t.TempDir(), "categories.yaml"))
	if !errors.Is(err, category.ErrNoCategories) {
		t.Errorf("expected ErrNoCategories, got %v", err)
	}
}

func TestDefaultPathUsesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	p, err := category.DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath: %v", err)
	}
	if !strings.HasPrefix(p, home) || filepath.Base(p) != "categories.yaml" {
		t.Errorf("unexpected default path %q", p)
	}
}

func TestWatchReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- category.Watch(ctx, path, func() { changed <- struct{}{} })
	}()

	// Give the watcher a moment to register before writing; retry the write
	// so a slow start does not make the test flaky.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for seen := false; !seen; {
		select {
		case <-changed:
			seen = true
		case <-tick.C:
			if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("no change reported for categories file")
		}
	}

	// Other files in the directory are ignored. Let late events for the
	// categories file settle first.
	time.Sleep(300 * time.Millisecond)
	for len(changed) > 0 {
		<-changed
	}
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Error("write to an unrelated file was reported")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestWriteStarter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "categories.yaml")
	ids := []string{"a", "b", "c", "d", "e", "f"}

	if err := category.WriteStarter(path, ids); err != nil {
		t.Fatalf("WriteStarter: %v", err)
	}
	snap, err := category.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Categories) != len(ids) || len(snap.Warnings) != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Categories[0].Priority != 1 || snap.Categories[5].Priority != 5 {
		t.Errorf("priorities should count up to 5, got %+v", snap.Categories)
	}
	if *snap.Categories[2].Weight != 1 {
		t.Errorf("weight should default to 1, got %v", *snap.Categories[2].Weight)
	}

	if err := category.WriteStarter(path, []string{"x"}); err == nil {
		t.Error("WriteStarter must not overwrite an existing file")
	}
}
