package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	versionSentinel = "<!-- allot-report-version: 1 -->"
	dataPrefix      = "<!-- allot-data: "
	dataSuffix      = " -->"
)

// Renderer serializes a Report to bytes.
type Renderer interface {
	Render(r *Report) ([]byte, error)
}

// JSONRenderer renders a Report as indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Render(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// MarkdownRenderer renders a Report as human-readable Markdown with an
// embedded base64 JSON payload so the file can be parsed back losslessly.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Render(r *Report) ([]byte, error) {
	jsonBytes, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, base64.StdEncoding.EncodeToString(jsonBytes), dataSuffix)

	fmt.Fprintf(&sb, "# Session %s\n\n", r.Session.EndTime.Format("2006-01-02 15:04"))

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Started: %s\n", r.Session.StartTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "- Ended: %s\n", r.Session.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "- Wall clock: %s\n", r.Session.Duration)
	fmt.Fprintf(&sb, "- Planned: %d min\n", r.Session.TotalMinutes)
	fmt.Fprintf(&sb, "- Tracked: %.1f min\n", r.Session.UsedMinutes)
	sb.WriteString("\n")

	sb.WriteString("## Categories\n\n")
	if len(r.Categories) == 0 {
		sb.WriteString("_No categories._\n")
	} else {
		sb.WriteString("| Category | Allocated | Used | Remaining |\n")
		sb.WriteString("|----------|-----------|------|-----------|\n")
		for _, c := range r.Categories {
			label := c.CategoryID
			if c.Name != "" {
				label = c.Name
			}
			fmt.Fprintf(&sb, "| %s | %d | %.1f | %.1f |\n",
				label, c.AllocatedMinutes, c.UsedMinutes, c.RemainingMinutes)
		}
	}
	sb.WriteString("\n")

	var over []string
	for _, c := range r.Categories {
		if c.RemainingMinutes < 0 {
			over = append(over, fmt.Sprintf("- %s ran %.1f min over\n", c.CategoryID, -c.RemainingMinutes))
		}
	}
	if len(over) > 0 {
		sb.WriteString("## Overruns\n\n")
		for _, line := range over {
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}
