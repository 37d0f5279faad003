package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBackend serves a small fixed data set over the backend's routes
type testBackend struct {
	mu      sync.Mutex
	deleted []string
	updates []map[string]any
	created int
}

func (b *testBackend) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("GET /get_findings", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "1", "title": "SQL injection", "overview": "Login form injectable"},
			{"id": "2", "title": nil, "overview": "TLS 1.0 enabled"},
			{"id": "3", "title": "Kerberoasting", "overview": "Service accounts roastable"},
		})
	})
	mux.HandleFunc("GET /get_report/{id}", func(w http.ResponseWriter, r *http.Request) {
		report := map[string]any{"Title": "SQL injection", "CVSS": "9.8", "Overview": "Login form injectable"}
		if r.PathValue("id") == "2" {
			report = map[string]any{"Title": "Weak TLS", "Overview": "TLS 1.0 enabled"}
		}
		encoded, _ := json.Marshal(report)
		writeJSON(w, http.StatusOK, map[string]any{
			"id": r.PathValue("id"), "report_type": "purple_team", "overview": report["Overview"], "report": string(encoded),
		})
	})
	mux.HandleFunc("PUT /update_report/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.updates = append(b.updates, body)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "Report updated successfully"})
	})
	mux.HandleFunc("DELETE /delete_finding/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.deleted = append(b.deleted, r.PathValue("id"))
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "Finding deleted successfully"})
	})
	mux.HandleFunc("GET /get_projects", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 5, "name": "Acme internal", "description": "Q3 assessment"},
		})
	})
	mux.HandleFunc("GET /get_project/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "5" {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Project not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id": 5, "name": "Acme internal", "description": "Q3 assessment",
			"findings": []map[string]any{
				{"id": "1", "title": "SQL injection", "overview": "Login form injectable",
					"report": `{"Title":"SQL injection","CVSS":"9.8"}`},
			},
		})
	})
	mux.HandleFunc("GET /get_project_summaries/{id}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "No summaries found for this project"})
	})
	mux.HandleFunc("POST /create_project", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.created++
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"id": 9, "name": body["name"], "description": body["description"]})
	})
	return mux
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func newTestServer(t *testing.T) (*testBackend, *httptest.Server) {
	t.Helper()
	backend := &testBackend{}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	t.Setenv("SLIME_CACHE_PATH", filepath.Join(t.TempDir(), "cache.db"))
	t.Setenv("SLIME_LOG_LEVEL", "error")
	t.Setenv("SLIME_MAX_RETRIES", "0")
	return backend, server
}

func run(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestFindingsList(t *testing.T) {
	_, server := newTestServer(t)

	res := run(t, "", "--api-url", server.URL, "findings", "list", "--sort", "title")
	require.NoError(t, res.err, res.stderr)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "TITLE")
	assert.Contains(t, lines[1], "Kerberoasting")
	assert.Contains(t, lines[2], "SQL injection")
	// The finding without a title sorts last.
	assert.True(t, strings.HasPrefix(lines[3], "2 "))
	assert.Contains(t, lines[4], "Page 1/1 (3 findings)")
}

func TestFindingsListSearchAndPage(t *testing.T) {
	_, server := newTestServer(t)

	res := run(t, "", "--api-url", server.URL, "findings", "list", "--search", "TLS")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "TLS 1.0 enabled")
	assert.NotContains(t, res.stdout, "Kerberoasting")

	res = run(t, "", "--api-url", server.URL, "findings", "list", "--page-size", "2", "--page", "2")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Kerberoasting")
	assert.Contains(t, res.stdout, "Page 2/2 (3 findings)")
}

func TestFindingsListOffline(t *testing.T) {
	_, server := newTestServer(t)

	res := run(t, "", "--api-url", server.URL, "findings", "list")
	require.NoError(t, res.err)

	res = run(t, "", "--api-url", "http://127.0.0.1:1", "--offline", "findings", "list")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "SQL injection")

	res = run(t, "", "--offline", "findings", "delete", "1")
	assert.Error(t, res.err)
	assert.Contains(t, res.stderr, "drop --offline")
}

func TestFindingsListFallsBackToCache(t *testing.T) {
	_, server := newTestServer(t)

	res := run(t, "", "--api-url", server.URL, "findings", "list")
	require.NoError(t, res.err)

	res = run(t, "", "--api-url", "http://127.0.0.1:1", "findings", "list")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "SQL injection")
	assert.Contains(t, res.stderr, "showing cached findings")
	assert.NotContains(t, res.stderr, "✗")
}

func TestRemoteOutcomesPrintedOnceAtInfoLevel(t *testing.T) {
	_, server := newTestServer(t)
	t.Setenv("SLIME_LOG_LEVEL", "info")

	res := run(t, "", "--api-url", server.URL, "projects", "show", "404")
	require.Error(t, res.err)
	assert.Equal(t, 1, strings.Count(res.stderr, "Project not found"), res.stderr)

	res = run(t, "", "--api-url", server.URL, "--yes", "findings", "delete", "2")
	require.NoError(t, res.err)
	assert.Equal(t, 1, strings.Count(res.stderr, "Finding deleted"), res.stderr)
}

func TestFindingsDelete(t *testing.T) {
	t.Run("approved with --yes", func(t *testing.T) {
		backend, server := newTestServer(t)

		res := run(t, "", "--api-url", server.URL, "--yes", "findings", "delete", "2")
		require.NoError(t, res.err)
		assert.Equal(t, []string{"2"}, backend.deleted)
		assert.Contains(t, res.stderr, "Finding deleted")
	})

	t.Run("declined at the prompt", func(t *testing.T) {
		backend, server := newTestServer(t)

		res := run(t, "n\n", "--api-url", server.URL, "findings", "delete", "2")
		require.NoError(t, res.err)
		assert.Empty(t, backend.deleted)
		assert.Contains(t, res.stderr, "Delete finding 2? [y/N]")
	})
}

func TestFindingsEdit(t *testing.T) {
	backend, server := newTestServer(t)

	res := run(t, "", "--api-url", server.URL, "findings", "edit", "1",
		"--set", "Risk_Rating=High", "--set", `References=["https://owasp.org"]`)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "Report saved")

	require.Len(t, backend.updates, 1)
	encoded, ok := backend.updates[0]["report"].(string)
	require.True(t, ok, "report is sent as a JSON string")

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(encoded), &report))
	assert.Equal(t, "High", report["Risk_Rating"])
	assert.Equal(t, "9.8", report["CVSS"])
	assert.Equal(t, []any{"https://owasp.org"}, report["References"])
}

func TestFindingsShow(t *testing.T) {
	_, server := newTestServer(t)

	res := run(t, "", "--api-url", server.URL, "findings", "show", "1")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "# SQL injection\n"))
	assert.Contains(t, res.stdout, "## CVSS\n\n9.8")
}

func TestProjectsShowWithoutSummary(t *testing.T) {
	_, server := newTestServer(t)

	res := run(t, "", "--api-url", server.URL, "projects", "show", "5")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Acme internal")
	assert.Contains(t, res.stdout, "SQL injection")
	assert.Contains(t, res.stdout, "No summaries yet")
	assert.Empty(t, res.stderr)
}

func TestProjectsShowNotFound(t *testing.T) {
	_, server := newTestServer(t)

	res := run(t, "", "--api-url", server.URL, "projects", "show", "404")
	require.Error(t, res.err)
	assert.Equal(t, 1, strings.Count(res.stderr, "Project not found"))
}

func TestProjectsCreateValidation(t *testing.T) {
	backend, server := newTestServer(t)

	res := run(t, "", "--api-url", server.URL, "projects", "create", "--description", "no name")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Error:")
	assert.Contains(t, res.stderr, "name")
	assert.Zero(t, backend.created)

	res = run(t, "", "--api-url", server.URL, "projects", "create", "--name", "Globex")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Created project 9")
	assert.Equal(t, 1, backend.created)
}

func TestSummariesSetRejectsUnknownField(t *testing.T) {
	_, server := newTestServer(t)

	res := run(t, "", "--api-url", server.URL, "summaries", "set", "5", "budget=1")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, `unknown summary field "budget"`)
}

func TestExportAndVerify(t *testing.T) {
	_, server := newTestServer(t)
	dir := t.TempDir()

	entity, err := openpgp.NewEntity("Report Signer", "", "signer@example.test", nil)
	require.NoError(t, err)
	privPath := filepath.Join(dir, "signer.asc")
	pubPath := filepath.Join(dir, "signer.pub.asc")
	writeArmored(t, privPath, openpgp.PrivateKeyType, func(w *bytes.Buffer) error { return entity.SerializePrivate(w, nil) })
	writeArmored(t, pubPath, openpgp.PublicKeyType, func(w *bytes.Buffer) error { return entity.Serialize(w) })

	out := filepath.Join(dir, "acme.md")
	res := run(t, "", "--api-url", server.URL, "export", "5", "-o", out, "--sign", "--key", privPath)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Wrote "+out+".asc")

	md, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Acme internal\n"))
	assert.Contains(t, string(md), "### SQL injection")

	res = run(t, "", "verify", out, out+".asc", "--key", pubPath)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Good signature")

	require.NoError(t, os.WriteFile(out, append(md, []byte("tampered")...), 0o600))
	res = run(t, "", "verify", out, out+".asc", "--key", pubPath)
	assert.Error(t, res.err)
}

func writeArmored(t *testing.T, path, blockType string, serialize func(*bytes.Buffer) error) {
	t.Helper()
	var raw, armored bytes.Buffer
	require.NoError(t, serialize(&raw))
	w, err := armor.Encode(&armored, blockType, nil)
	require.NoError(t, err)
	_, err = w.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, armored.Bytes(), 0o600))
}
