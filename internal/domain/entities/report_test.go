package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/slime/internal/domain/errs"
)

func TestParseReport_ObjectAndEncodedString(t *testing.T) {
	object := json.RawMessage(`{"Title":"SQL injection","CVSS":"9.8"}`)
	encoded := json.RawMessage(`"{\"Title\":\"SQL injection\",\"CVSS\":\"9.8\"}"`)

	fromObject, err := ParseReport(object)
	require.NoError(t, err)
	fromString, err := ParseReport(encoded)
	require.NoError(t, err)

	assert.Equal(t, fromObject, fromString)
	assert.Equal(t, "SQL injection", fromObject[FieldTitle])
}

func TestParseReport_Empty(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		r, err := ParseReport(json.RawMessage(raw))
		require.NoError(t, err)
		assert.Nil(t, r)
	}
}

func TestParseReport_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "broken object", raw: `{"Title":`},
		{name: "string holding garbage", raw: `"not json at all"`},
		{name: "string holding array", raw: `"[1,2,3]"`},
		{name: "string holding null", raw: `"null"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReport(json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindParseError), "kind = %s", errs.KindOf(err))
		})
	}
}

func TestReport_OrderedFields(t *testing.T) {
	r := Report{
		FieldReferences:  []any{"https://example.test"},
		"Zeta_Notes":     "last",
		FieldOverview:    "overview",
		FieldTitle:       "title",
		"Alpha_Notes":    "extra",
		FieldMitigations: "patch",
	}

	assert.Equal(t, []string{
		FieldTitle, FieldOverview, FieldMitigations, FieldReferences, "Alpha_Notes", "Zeta_Notes",
	}, r.OrderedFields())
}

func TestReport_CloneIsDeep(t *testing.T) {
	r := Report{
		FieldReferences: []any{"a", "b"},
		"Nested":        map[string]any{"k": "v"},
	}

	clone := r.Clone()
	clone[FieldReferences].([]any)[0] = "changed"
	clone["Nested"].(map[string]any)["k"] = "changed"

	assert.Equal(t, "a", r[FieldReferences].([]any)[0])
	assert.Equal(t, "v", r["Nested"].(map[string]any)["k"])
}

func TestReport_SerializeRoundTrip(t *testing.T) {
	r := Report{FieldTitle: "XSS", FieldCVSS: 6.1}

	text, err := r.Serialize()
	require.NoError(t, err)

	parsed, err := ParseReportText(text)
	require.NoError(t, err)
	assert.Equal(t, r, parsed)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "text", FormatValue("text"))
	assert.Equal(t, "a\n\nb", FormatValue([]any{"a", "b"}))
	assert.Equal(t, "9.8", FormatValue(9.8))
	assert.Equal(t, "{\n  \"k\": \"v\"\n}", FormatValue(map[string]any{"k": "v"}))
}
