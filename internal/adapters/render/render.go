// Package render writes evaluation reports to stdout-like writers.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/rocauc/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Write encodes reports to w in the given format.
//
// Text output for a single report is the bare AUC value. For several
// reports each line is "<auc>\t<source>". JSON and YAML always emit a list.
func Write(w io.Writer, format string, reports []model.Report) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return writeText(w, reports)
	case FormatJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		if err := e.Encode(nonNil(reports)); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML, "yml":
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(nonNil(reports)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := e.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func writeText(w io.Writer, reports []model.Report) error {
	if len(reports) == 1 {
		_, err := fmt.Fprintln(w, FormatAUC(reports[0].AUC))
		return err
	}
	for _, r := range reports {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", FormatAUC(r.AUC), r.Source); err != nil {
			return err
		}
	}
	return nil
}

// FormatAUC renders v with the shortest round-tripping digits.
// Integral values keep a trailing ".0" so 1 prints as 1.0.
func FormatAUC(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if v == math.Trunc(v) && !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func nonNil(reports []model.Report) []model.Report {
	if reports == nil {
		return []model.Report{}
	}
	return reports
}
