package entities

import "encoding/json"

// Project is a named grouping of findings.
type Project struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Findings    []FindingRef `json:"findings,omitempty"`
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	if p.Findings != nil {
		refs := make([]FindingRef, len(p.Findings))
		for i, ref := range p.Findings {
			if ref.Embedded != nil {
				refs[i] = RefEmbedding(*ref.Embedded)
				refs[i].ID = ref.ID
				continue
			}
			refs[i] = ref
		}
		p.Findings = refs
	}
	return p
}

// EmbeddedFindings returns the findings embedded in the project's references,
// in reference order. Bare-id references are skipped.
func (p Project) EmbeddedFindings() []Finding {
	out := make([]Finding, 0, len(p.Findings))
	for _, ref := range p.Findings {
		if ref.Embedded != nil {
			out = append(out, ref.Embedded.Clone())
		}
	}
	return out
}

// ProjectInput is the payload of create and update project requests.
// Findings are always bare identifiers.
type ProjectInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Findings    []string `json:"findings" validate:"dive,required"`
}

// UnmarshalJSON accepts string or numeric project ids. Null text fields
// decode as empty.
func (p *Project) UnmarshalJSON(data []byte) error {
	var w struct {
		ID          flexID       `json:"id"`
		Name        *string      `json:"name"`
		Description *string      `json:"description"`
		Findings    []FindingRef `json:"findings"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Project{ID: string(w.ID), Findings: w.Findings}
	if w.Name != nil {
		p.Name = *w.Name
	}
	if w.Description != nil {
		p.Description = *w.Description
	}
	return nil
}
