package services

import (
	"strings"

	"github.com/ochairo/slime/internal/domain/entities"
)

// AssociationManager edits the finding references of a project draft.
// References are compared by id regardless of representation.
type AssociationManager struct{}

// NewAssociationManager creates an association manager
func NewAssociationManager() *AssociationManager {
	return &AssociationManager{}
}

// Contains reports whether id is referenced
func (m *AssociationManager) Contains(refs []entities.FindingRef, id string) bool {
	for _, ref := range refs {
		if ref.ID == id {
			return true
		}
	}
	return false
}

// Toggle removes every reference to id when present, otherwise appends id as
// a bare reference. The input slice is not modified.
func (m *AssociationManager) Toggle(refs []entities.FindingRef, id string) []entities.FindingRef {
	out := make([]entities.FindingRef, 0, len(refs)+1)
	removed := false
	for _, ref := range refs {
		if ref.ID == id {
			removed = true
			continue
		}
		out = append(out, ref)
	}
	if !removed {
		out = append(out, entities.RefByID(id))
	}
	return out
}

// Normalize collapses references to ids in first-seen order, dropping
// duplicates and empty ids
func (m *AssociationManager) Normalize(refs []entities.FindingRef) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.ID == "" {
			continue
		}
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		out = append(out, ref.ID)
	}
	return out
}

// Refs converts ids to bare references
func (m *AssociationManager) Refs(ids []string) []entities.FindingRef {
	out := make([]entities.FindingRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, entities.RefByID(id))
	}
	return out
}

// FilterAvailable returns the findings offered for association: the title
// contains term case-insensitively, or the id contains term. An empty term
// matches everything.
func (m *AssociationManager) FilterAvailable(findings []entities.Finding, term string) []entities.Finding {
	out := make([]entities.Finding, 0, len(findings))
	if term == "" {
		return append(out, findings...)
	}
	lower := strings.ToLower(term)
	for _, f := range findings {
		if strings.Contains(strings.ToLower(f.DisplayTitle()), lower) || strings.Contains(f.ID, term) {
			out = append(out, f)
		}
	}
	return out
}
