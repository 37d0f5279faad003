package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ochairo/slime/internal/domain/entities"
)

func TestAssociation_ToggleScenario(t *testing.T) {
	m := NewAssociationManager()
	project := entities.Project{ID: "5", Findings: m.Refs([]string{"1", "2"})}

	project.Findings = m.Toggle(project.Findings, "2")
	assert.Equal(t, []string{"1"}, m.Normalize(project.Findings))

	project.Findings = m.Toggle(project.Findings, "2")
	assert.Equal(t, []string{"1", "2"}, m.Normalize(project.Findings))
}

func TestAssociation_ToggleIgnoresRepresentation(t *testing.T) {
	m := NewAssociationManager()
	refs := []entities.FindingRef{
		entities.RefEmbedding(entities.Finding{ID: "1", Title: "embedded"}),
		entities.RefByID("2"),
	}

	assert.True(t, m.Contains(refs, "1"))
	out := m.Toggle(refs, "1")
	assert.Equal(t, []string{"2"}, m.Normalize(out))
	assert.Len(t, refs, 2, "input untouched")
}

func TestAssociation_ToggleIsOwnInverse(t *testing.T) {
	m := NewAssociationManager()
	start := m.Refs([]string{"3", "1", "7"})

	for _, id := range []string{"1", "9", "3"} {
		twice := m.Toggle(m.Toggle(start, id), id)
		assert.ElementsMatch(t, m.Normalize(start), m.Normalize(twice), "id %s", id)
	}
}

func TestAssociation_Normalize(t *testing.T) {
	m := NewAssociationManager()
	refs := []entities.FindingRef{
		entities.RefByID("2"),
		entities.RefEmbedding(entities.Finding{ID: "1"}),
		entities.RefByID(""),
		entities.RefByID("2"),
		entities.RefEmbedding(entities.Finding{ID: "2"}),
	}

	assert.Equal(t, []string{"2", "1"}, m.Normalize(refs))
	assert.Equal(t, []string{}, m.Normalize(nil))
}

func TestAssociation_FilterAvailable(t *testing.T) {
	m := NewAssociationManager()
	findings := []entities.Finding{
		{ID: "101", Title: "SMB signing disabled"},
		{ID: "202", Title: "Weak passwords"},
		{ID: "303", Report: entities.Report{entities.FieldTitle: "smbghost"}},
	}

	tests := []struct {
		term string
		want []string
	}{
		{term: "", want: []string{"101", "202", "303"}},
		{term: "SMB", want: []string{"101", "303"}},
		{term: "20", want: []string{"202"}},
		{term: "0", want: []string{"101", "202", "303"}},
		{term: "nothing", want: []string{}},
		{term: " ", want: []string{"101", "202"}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(m.FilterAvailable(findings, tt.term)))
		})
	}
}
