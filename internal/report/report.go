// Package report prints a single snapshot for the one-shot command.
package report

import (
	"io"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/usage"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

const defaultWidth = 80

// Formats lists the accepted --format values.
func Formats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", errors.New().WithData(errors.ErrUnsupported, "output format "+s)
	}
}

// Document is the machine-readable form of a snapshot.
type Document struct {
	Time     string         `json:"time" yaml:"time"`
	Readings usage.Snapshot `json:"readings" yaml:"readings"`
}

func newDocument(snap usage.Snapshot, at time.Time) Document {
	if snap == nil {
		snap = usage.Snapshot{}
	}
	return Document{Time: at.UTC().Format(time.RFC3339), Readings: snap}
}

// Write renders snap to w in format f.
func Write(w io.Writer, f Format, snap usage.Snapshot, at time.Time) error {
	errFactory := errors.New()

	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newDocument(snap, at)); err != nil {
			return errFactory.Wrap(errors.ErrOutput, err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(snap, at)); err != nil {
			return errFactory.Wrap(errors.ErrOutput, err)
		}
		if err := enc.Close(); err != nil {
			return errFactory.Wrap(errors.ErrOutput, err)
		}
	case FormatTable:
		if _, err := io.WriteString(w, Table(snap, at, time.Now(), width(w))); err != nil {
			return errFactory.Wrap(errors.ErrOutput, err)
		}
	default:
		return errFactory.WithData(errors.ErrUnsupported, "output format "+string(f))
	}
	return nil
}

// width is the terminal width when w is a terminal, defaultWidth otherwise.
func width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return defaultWidth
	}
	return cols
}
