package yaml

import (
	"testing"

	"github.com/ochairo/slime/internal/domain/entities"
)

// FuzzConfigParser tests the YAML parser against random/malformed inputs
// to detect crashes, panics, or unexpected behavior.
//
// Run with: go test -fuzz=FuzzConfigParser -fuzztime=30s
func FuzzConfigParser(f *testing.F) {
	f.Add([]byte("api:\n  base_url: http://localhost:5000\n  timeout: 30s\n"))
	f.Add([]byte("pages:\n  findings: 10\n  association: 12\n"))
	f.Add([]byte("notifications:\n  default_duration: 5000\n"))
	f.Add([]byte("cache: {enabled: true, path: /tmp/c.db}"))
	f.Add([]byte(""))
	f.Add([]byte("{{{{"))

	parser := NewConfigParser()
	base := entities.DefaultConsoleConfig()

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := parser.Parse(data, base)
		if err != nil && cfg != base {
			t.Errorf("failed parse changed the base configuration")
		}
	})
}
