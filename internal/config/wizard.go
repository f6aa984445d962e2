package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SaveGlobal writes cfg to ~/.config/allot/config.json, creating the
// directory if needed.
func SaveGlobal(cfg Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Answers is what the setup wizard collected.
type Answers struct {
	Config     Config
	Categories []string // ids for a starter categories file; empty keeps the existing one
}

// RunWizard asks for the main settings on out and reads answers from in.
// existing supplies the default for each prompt.
func RunWizard(in io.Reader, out io.Writer, existing Config) (*Answers, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	a := &Answers{Config: existing}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │        allot · setup            │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	total, err := ask("  Default session length in minutes", strconv.Itoa(existing.DefaultTotalMinutes))
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(total)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("session length must be a positive number of minutes, got %q", total)
	}
	a.Config.DefaultTotalMinutes = n

	format, err := ask("  Report format (markdown/json)", existing.DefaultFormat)
	if err != nil {
		return nil, err
	}
	if format == "json" {
		a.Config.DefaultFormat = "json"
	} else {
		a.Config.DefaultFormat = "markdown"
	}

	a.Config.OutputDir, err = ask("  Report directory", existing.OutputDir)
	if err != nil {
		return nil, err
	}

	cats, err := ask("  Starter categories, comma separated (blank to skip)", "")
	if err != nil {
		return nil, err
	}
	for _, c := range strings.Split(cats, ",") {
		if c = strings.TrimSpace(c); c != "" {
			a.Categories = append(a.Categories, c)
		}
	}

	fmt.Fprintln(out)
	return a, nil
}
