// Package category reads the category snapshot a session is planned from.
// Categories live in a YAML file owned by the user; allot only reads it, once
// per plan, so later edits never change a session already in progress.
package category

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/allot/internal/allocation"
)

// ErrNoCategories is returned by Load when the categories file does not exist.
var ErrNoCategories = errors.New("no categories file")

const (
	minPriority = 1
	maxPriority = 5
)

// Category is one weighted bucket of work.
type Category struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name,omitempty"`
	Priority int      `yaml:"priority"`
	Min      *int     `yaml:"min,omitempty"`
	Max      *int     `yaml:"max,omitempty"`
	Weight   *float64 `yaml:"weight,omitempty"` // defaults to 1
}

// Label is the display name, falling back to the id.
func (c Category) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

type file struct {
	Categories []Category `yaml:"categories"`
}

// Snapshot is a validated, ordered list of categories.
type Snapshot struct {
	Categories []Category
	// Warnings lists values that were corrected while loading.
	Warnings []string
}

// DefaultPath returns ~/.config/allot/categories.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "allot", "categories.yaml"), nil
}

// Load reads and validates the categories file at path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCategories, path)
		}
		return nil, fmt.Errorf("reading categories: %w", err)
	}
	return Parse(data)
}

// Parse validates a YAML categories document.
func Parse(data []byte) (*Snapshot, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing categories: %w", err)
	}

	snap := &Snapshot{Categories: make([]Category, 0, len(f.Categories))}
	seen := make(map[string]bool, len(f.Categories))
	for i, c := range f.Categories {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			return nil, fmt.Errorf("category %d has no id", i+1)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate category id %q", c.ID)
		}
		seen[c.ID] = true

		if c.Priority < minPriority || c.Priority > maxPriority {
			clamped := min(max(c.Priority, minPriority), maxPriority)
			snap.Warnings = append(snap.Warnings,
				fmt.Sprintf("%s: priority %d is outside %d-%d, using %d", c.ID, c.Priority, minPriority, maxPriority, clamped))
			c.Priority = clamped
		}
		if c.Weight == nil {
			w := 1.0
			c.Weight = &w
		} else if *c.Weight < 0 {
			snap.Warnings = append(snap.Warnings, fmt.Sprintf("%s: negative weight %g, using 0", c.ID, *c.Weight))
			w := 0.0
			c.Weight = &w
		}
		if c.Min != nil && *c.Min < 0 {
			return nil, fmt.Errorf("%s: min must not be negative", c.ID)
		}
		if c.Max != nil && *c.Max < 0 {
			return nil, fmt.Errorf("%s: max must not be negative", c.ID)
		}
		if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			return nil, fmt.Errorf("%s: min %d exceeds max %d", c.ID, *c.Min, *c.Max)
		}
		snap.Categories = append(snap.Categories, c)
	}
	return snap, nil
}

// Constraints converts the snapshot into allocation input, keeping order.
func (s *Snapshot) Constraints() []allocation.Constraint {
	out := make([]allocation.Constraint, len(s.Categories))
	for i, c := range s.Categories {
		out[i] = allocation.Constraint{
			ID:          c.ID,
			Priority:    c.Priority,
			MinDuration: c.Min,
			MaxDuration: c.Max,
			Weight:      *c.Weight,
		}
	}
	return out
}

// Labels maps category ids to display names.
func (s *Snapshot) Labels() map[string]string {
	out := make(map[string]string, len(s.Categories))
	for _, c := range s.Categories {
		out[c.ID] = c.Label()
	}
	return out
}

// WriteStarter creates a categories file at path listing ids with default
// priority and weight. It refuses to overwrite an existing file.
func WriteStarter(path string, ids []string) error {
	f := file{Categories: make([]Category, len(ids))}
	for i, id := range ids {
		f.Categories[i] = Category{ID: id, Priority: min(i+1, maxPriority)}
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
