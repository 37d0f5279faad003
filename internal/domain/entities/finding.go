// Package entities holds the console's domain types.
package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ochairo/slime/internal/domain/errs"
)

// ReportType selects the generation prompt used by the backend.
type ReportType string

const (
	// ReportTypePurpleTeam is a purple-team finding report.
	ReportTypePurpleTeam ReportType = "purple_team"
	// ReportTypeRedTeam is a red-team finding report.
	ReportTypeRedTeam ReportType = "red_team"
)

// Finding is a single security-assessment item. Title and Overview are the
// list-level projections of the report; Report may be empty on list results.
type Finding struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Overview   string     `json:"overview"`
	ReportType ReportType `json:"report_type,omitempty"`
	Report     Report     `json:"report,omitempty"`
}

// DisplayTitle returns the list title, falling back to the report's Title field.
func (f Finding) DisplayTitle() string {
	if f.Title != "" {
		return f.Title
	}
	if t, ok := f.Report[FieldTitle].(string); ok {
		return t
	}
	return ""
}

// Clone returns a deep copy of the finding.
func (f Finding) Clone() Finding {
	f.Report = f.Report.Clone()
	return f
}

// wireFinding mirrors the backend shapes: ids may be numbers and the report may
// arrive as an object or as a JSON-encoded string.
type wireFinding struct {
	ID         flexID          `json:"id"`
	Title      *string         `json:"title"`
	Overview   *string         `json:"overview"`
	ReportType ReportType      `json:"report_type"`
	Report     json.RawMessage `json:"report"`
}

// UnmarshalJSON decodes a finding from any of the backend representations.
func (f *Finding) UnmarshalJSON(data []byte) error {
	var w wireFinding
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	report, err := ParseReport(w.Report)
	if err != nil {
		return err
	}
	*f = Finding{ID: string(w.ID), ReportType: w.ReportType, Report: report}
	if w.Title != nil {
		f.Title = *w.Title
	}
	if w.Overview != nil {
		f.Overview = *w.Overview
	}
	return nil
}

// flexID accepts string and numeric identifiers.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid identifier %s: %w", data, err)
	}
	*id = flexID(n.String())
	return nil
}

// Truncate shortens s to at most limit runes, appending "..." when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

// FormatValue renders a report value as text: lists joined by blank lines,
// objects as indented JSON, scalars as-is.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, "\n\n")
	case map[string]any:
		out, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(out)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// FindingRef references a finding from a project, either by bare id or
// through an embedded partial finding. ID is always populated.
type FindingRef struct {
	ID       string
	Embedded *Finding
}

// RefByID returns a bare-id reference.
func RefByID(id string) FindingRef {
	return FindingRef{ID: id}
}

// RefEmbedding returns a reference carrying the embedded finding.
func RefEmbedding(f Finding) FindingRef {
	clone := f.Clone()
	return FindingRef{ID: f.ID, Embedded: &clone}
}

// IsEmbedded reports whether the reference carries an embedded finding.
func (r FindingRef) IsEmbedded() bool {
	return r.Embedded != nil
}

// MarshalJSON always writes the bare identifier.
func (r FindingRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts a bare id (string or number) or an embedded finding object.
func (r *FindingRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var f Finding
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return err
		}
		*r = FindingRef{ID: f.ID, Embedded: &f}
		return nil
	}
	var id flexID
	if err := id.UnmarshalJSON(trimmed); err != nil {
		return errs.Wrap(errs.KindParseError, "FindingRef", err)
	}
	*r = FindingRef{ID: string(id)}
	return nil
}
