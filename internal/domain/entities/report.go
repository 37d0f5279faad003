package entities

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/ochairo/slime/internal/domain/errs"
)

// Canonical report field names.
const (
	FieldTitle                       = "Title"
	FieldCVSS                        = "CVSS"
	FieldCVSSStringExplanation       = "CVSS_String_Explanation"
	FieldMitreAttackID               = "Mitre_Attack_ID"
	FieldRiskRating                  = "Risk_Rating"
	FieldImpactRatingExplanation     = "Impact_Rating_Explanation"
	FieldLikelihoodRatingExplanation = "Likelihood_Rating_Explanation"
	FieldOverview                    = "Overview"
	FieldBusinessImpact              = "Business_Impact"
	FieldMitigations                 = "Mitigations"
	FieldReferences                  = "References"
)

// ReportFieldOrder is the canonical display order of report fields.
var ReportFieldOrder = []string{
	FieldTitle,
	FieldCVSS,
	FieldCVSSStringExplanation,
	FieldMitreAttackID,
	FieldRiskRating,
	FieldImpactRatingExplanation,
	FieldLikelihoodRatingExplanation,
	FieldOverview,
	FieldBusinessImpact,
	FieldMitigations,
	FieldReferences,
}

// Report is a finding's structured document: field name to text or nested
// JSON structure. The field set is open-ended.
type Report map[string]any

// ParseReport decodes a stored report. The backend returns either a JSON
// object or a string holding the encoded object; both are accepted. An empty
// or null payload yields a nil report.
func ParseReport(raw json.RawMessage) (Report, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, errs.Wrap(errs.KindParseError, "ParseReport", err)
		}
		return ParseReportText(encoded)
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, &errs.Error{
			Kind:    errs.KindParseError,
			Op:      "ParseReport",
			Message: "Error parsing report data. The report might be in an invalid format.",
			Err:     err,
		}
	}
	return r, nil
}

// ParseReportText decodes a report from its textual JSON form. The text must
// hold a JSON object.
func ParseReportText(text string) (Report, error) {
	var r Report
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, &errs.Error{
			Kind:    errs.KindParseError,
			Op:      "ParseReport",
			Message: "Error parsing report data. The report might be in an invalid format.",
			Err:     err,
		}
	}
	if r == nil {
		return nil, errs.New(errs.KindParseError, "ParseReport", "report document is not an object")
	}
	return r, nil
}

// Serialize encodes the whole report as compact JSON text.
func (r Report) Serialize() (string, error) {
	out, err := json.Marshal(r)
	if err != nil {
		return "", errs.Wrap(errs.KindParseError, "SerializeReport", err)
	}
	return string(out), nil
}

// Pretty encodes the report as JSON indented by two spaces.
func (r Report) Pretty() (string, error) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", errs.Wrap(errs.KindParseError, "SerializeReport", err)
	}
	return string(out), nil
}

// OrderedFields returns the report's field names: canonical fields first in
// display order, then the remaining fields sorted by name. Absent fields are
// omitted.
func (r Report) OrderedFields() []string {
	fields := make([]string, 0, len(r))
	known := make(map[string]struct{}, len(ReportFieldOrder))
	for _, name := range ReportFieldOrder {
		known[name] = struct{}{}
		if _, ok := r[name]; ok {
			fields = append(fields, name)
		}
	}
	extra := make([]string, 0)
	for name := range r {
		if _, ok := known[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(fields, extra...)
}

// Clone returns a deep copy of the report.
func (r Report) Clone() Report {
	if r == nil {
		return nil
	}
	out := make(Report, len(r))
	for k, v := range r {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a decoded JSON value.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case Report:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}
