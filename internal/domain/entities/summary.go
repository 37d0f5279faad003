package entities

// SummaryField names one of the four long-text fields of a project summary.
type SummaryField string

// Project summary fields.
const (
	SummaryProjectSummary            SummaryField = "project_summary"
	SummaryExecutiveSummary          SummaryField = "executive_summary"
	SummaryAssessmentOverview        SummaryField = "assessment_overview"
	SummaryDetailedAssessmentSummary SummaryField = "detailed_assessment_summary"
)

// SummaryFields lists the summary fields in display order.
var SummaryFields = []SummaryField{
	SummaryProjectSummary,
	SummaryExecutiveSummary,
	SummaryAssessmentOverview,
	SummaryDetailedAssessmentSummary,
}

// Title returns the human-readable label of the field.
func (f SummaryField) Title() string {
	switch f {
	case SummaryProjectSummary:
		return "Project Summary"
	case SummaryExecutiveSummary:
		return "Executive Summary"
	case SummaryAssessmentOverview:
		return "Assessment Overview"
	case SummaryDetailedAssessmentSummary:
		return "Detailed Assessment Summary"
	default:
		return string(f)
	}
}

// Valid reports whether f is one of the known summary fields.
func (f SummaryField) Valid() bool {
	for _, known := range SummaryFields {
		if f == known {
			return true
		}
	}
	return false
}

// ProjectSummary holds the summary documents of a project.
type ProjectSummary struct {
	ID                        string `json:"id,omitempty"`
	ProjectID                 string `json:"project_id"`
	ProjectSummary            string `json:"project_summary"`
	ExecutiveSummary          string `json:"executive_summary"`
	AssessmentOverview        string `json:"assessment_overview"`
	DetailedAssessmentSummary string `json:"detailed_assessment_summary"`
	CreatedAt                 string `json:"created_at,omitempty"`
}

// Fields returns the summary's text fields keyed by field name.
func (s ProjectSummary) Fields() map[SummaryField]string {
	return map[SummaryField]string{
		SummaryProjectSummary:            s.ProjectSummary,
		SummaryExecutiveSummary:          s.ExecutiveSummary,
		SummaryAssessmentOverview:        s.AssessmentOverview,
		SummaryDetailedAssessmentSummary: s.DetailedAssessmentSummary,
	}
}

// WithField returns a copy of s with the field set to value. Unknown fields
// are ignored.
func (s ProjectSummary) WithField(field SummaryField, value string) ProjectSummary {
	switch field {
	case SummaryProjectSummary:
		s.ProjectSummary = value
	case SummaryExecutiveSummary:
		s.ExecutiveSummary = value
	case SummaryAssessmentOverview:
		s.AssessmentOverview = value
	case SummaryDetailedAssessmentSummary:
		s.DetailedAssessmentSummary = value
	}
	return s
}

// Field returns the value of the named field.
func (s ProjectSummary) Field(field SummaryField) string {
	return s.Fields()[field]
}
