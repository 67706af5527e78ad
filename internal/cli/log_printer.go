package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

// LogPrinter writes entries one per line, either colorized for a
// terminal or as raw JSON
type LogPrinter struct {
	w     io.Writer
	color bool
	json  bool
}

// NewLogPrinter creates a new LogPrinter
func NewLogPrinter(w io.Writer, color, jsonOutput bool) *LogPrinter {
	return &LogPrinter{w: w, color: color, json: jsonOutput}
}

// PrintEntry prints one entry
func (lp *LogPrinter) PrintEntry(entry domain.Entry) error {
	if lp.json {
		data, err := json.Marshal(entry.Data)
		if err != nil {
			return fmt.Errorf("encoding entry %d: %w", entry.Seq, err)
		}
		_, err = fmt.Fprintf(lp.w, "%s\n", data)
		return err
	}

	s := domain.Summarize(entry.Data)
	var sb strings.Builder

	sb.WriteString(lp.paint(constants.ColorDim, fmt.Sprintf("%6d", entry.Pos)))
	if s.Time != "" {
		sb.WriteString(" " + lp.paint(constants.ColorDim, s.Time))
	}
	if s.Level != "" {
		level := strings.ToLower(s.Level)
		sb.WriteString(" " + lp.paint(constants.LevelColors[level], fmt.Sprintf("%-5s", strings.ToUpper(level))))
	}
	if s.Message != "" {
		sb.WriteString(" " + s.Message)
	}
	for _, f := range s.Fields {
		sb.WriteString(" " + lp.paint(constants.ColorDim, f.Key+"=") + f.Value)
	}
	sb.WriteString("\n")

	_, err := io.WriteString(lp.w, sb.String())
	return err
}

func (lp *LogPrinter) paint(color, s string) string {
	if !lp.color || color == "" {
		return s
	}
	return color + s + constants.ColorReset
}
