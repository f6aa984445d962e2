// Package report renders the summary of an ended session as Markdown or JSON
// and reads it back.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fakeyudi/allot/internal/session"
)

// Report is the complete, renderable summary of one ended session.
type Report struct {
	Session    Meta           `json:"session"`
	Categories []CategoryLine `json:"categories"`
}

// Meta holds summary metadata about the session.
type Meta struct {
	ID           string    `json:"id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	TotalMinutes int       `json:"total_minutes"`
	UsedMinutes  float64   `json:"used_minutes"`
	Duration     string    `json:"duration"` // wall clock, e.g. "1h32m0s"
}

// CategoryLine is the budget against actual use for one category.
type CategoryLine struct {
	CategoryID       string  `json:"category_id"`
	Name             string  `json:"name,omitempty"`
	AllocatedMinutes int     `json:"allocated_minutes"`
	UsedMinutes      float64 `json:"used_minutes"`
	RemainingMinutes float64 `json:"remaining_minutes"` // negative when overrun
}

// New builds a Report from final, the snapshot returned when the session
// ended. labels maps category ids to display names and may be nil.
func New(final *session.Session, ended time.Time, labels map[string]string) *Report {
	r := &Report{
		Session: Meta{
			ID:           final.ID,
			StartTime:    final.StartedAt,
			EndTime:      ended,
			TotalMinutes: final.TotalDuration,
			UsedMinutes:  final.TotalUsed(),
			Duration:     ended.Sub(final.StartedAt).Round(time.Second).String(),
		},
		Categories: make([]CategoryLine, len(final.Allocations)),
	}
	for i, a := range final.Allocations {
		r.Categories[i] = CategoryLine{
			CategoryID:       a.CategoryID,
			Name:             labels[a.CategoryID],
			AllocatedMinutes: a.AllocatedMinutes,
			UsedMinutes:      a.UsedMinutes,
			RemainingMinutes: session.RemainingForCategory(a, 0),
		}
	}
	return r
}

// ForFormat returns the renderer and file extension for format. Anything
// other than "json" renders Markdown.
func ForFormat(format string) (Renderer, string) {
	if format == "json" {
		return &JSONRenderer{}, ".json"
	}
	return &MarkdownRenderer{}, ".md"
}

// Write renders r in format into dir as allot-<end time><ext> and returns the
// path written.
func Write(dir, format string, r *Report) (string, error) {
	renderer, ext := ForFormat(format)
	data, err := renderer.Render(r)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, "allot-"+r.Session.EndTime.Format("20060102-150405")+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
