package entities

import "time"

// ReportRequest asks the backend to draft a new finding report.
type ReportRequest struct {
	ReportType         ReportType `validate:"required,oneof=purple_team red_team"`
	Overview           string     `validate:"required,notblank"`
	ObfuscateUsernames bool
	ObfuscateMachines  bool
	ObfuscateDomains   bool
}

// SummaryRequest carries the context used to draft project summaries.
type SummaryRequest struct {
	ProjectID        string `validate:"required"`
	ProjectName      string `validate:"required"`
	FindingsOverview string `validate:"required,notblank"`
	ProjectSummary   string
	StartDate        time.Time
	EndDate          time.Time
}

// DateLayout is the wire format of assessment dates.
const DateLayout = "2006-01-02"

// GeneratedSummaries is the backend's draft of the derived summary fields.
type GeneratedSummaries struct {
	ID                        string `json:"id"`
	ExecutiveSummary          string `json:"ExecutiveSummary"`
	AssessmentOverview        string `json:"AssessmentOverview"`
	DetailedAssessmentSummary string `json:"DetailedAssessmentSummary"`
}

// Fields maps the generated text onto summary fields.
func (g GeneratedSummaries) Fields() map[SummaryField]string {
	return map[SummaryField]string{
		SummaryExecutiveSummary:          g.ExecutiveSummary,
		SummaryAssessmentOverview:        g.AssessmentOverview,
		SummaryDetailedAssessmentSummary: g.DetailedAssessmentSummary,
	}
}
