package integration

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const policyForm = `
attributes:
  - name: age
    scheme: quasi
    params: {k: 2}
  - name: zip
    scheme: suppression
    params: {level: 1}
  - name: email
    scheme: pgp
`

const hierarchyForm = `
attributes:
  - name: age
    type: interval
    levels: ["18-49,50-90", "18-90"]
  - name: zip
    type: static
    levels: ["1*,2*,3*"]
`

// TestPipeline generates an event, builds both policies from forms, validates
// them and submits everything to a stub transformer.
func TestPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	projectRoot, err := getProjectRoot()
	require.NoError(t, err)
	dir := t.TempDir()

	eventr := buildBinary(t, projectRoot, dir, "eventr")
	policr := buildBinary(t, projectRoot, dir, "policr")

	var (
		mu       sync.Mutex
		received map[string]json.RawMessage
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"queued"}`)
	}))
	defer server.Close()

	outDir := filepath.Join(dir, "out")
	runLog := filepath.Join(dir, "runs.jsonl")
	configFile := writeFile(t, dir, "config.yaml", fmt.Sprintf(`version: "0.1"
policy:
  creator: "integration"
  organization: "cert"
transformer:
  endpoint: "%s"
output:
  dir: "%s"
logging:
  level: "warn"
  run_log: "%s"
`, server.URL, outDir, runLog))

	genConfig := writeFile(t, dir, "gen.yaml", fmt.Sprintf(`output: "%s"
seed: 11
events: 1
mode: attributes
attributes: 11
`, filepath.Join(dir, "events")))
	pForm := writeFile(t, dir, "policy.yaml", policyForm)
	hForm := writeFile(t, dir, "hierarchy.yaml", hierarchyForm)

	run(t, dir, eventr, "generate", "--config", genConfig)
	eventFile := filepath.Join(dir, "events", "event-0001.json")
	require.FileExists(t, eventFile)

	out := run(t, dir, policr, "--config", configFile, "event", "inspect", "--event", eventFile)
	assert.Contains(t, out, "mode: attributes")

	run(t, dir, policr, "--config", configFile, "policy", "build", "--event", eventFile, "--form", pForm)
	policyFile := filepath.Join(outDir, "event-0001-policy.json")
	require.FileExists(t, policyFile)

	run(t, dir, policr, "--config", configFile, "hierarchy", "build", "--policy", policyFile, "--form", hForm)
	hierarchyFile := filepath.Join(outDir, "event-0001-hierarchy.json")
	require.FileExists(t, hierarchyFile)

	out = run(t, dir, policr, "--config", configFile, "validate", "policy", "--file", policyFile)
	assert.Contains(t, out, "validated successfully")
	out = run(t, dir, policr, "--config", configFile, "validate", "hierarchy", "--file", hierarchyFile)
	assert.Contains(t, out, "validated successfully")

	run(t, dir, policr, "--config", configFile, "submit",
		"--event", eventFile, "--policy", policyFile, "--hierarchy", hierarchyFile)

	mu.Lock()
	require.Contains(t, received, "Event")
	require.Contains(t, received, "Privacy-policy")
	require.Contains(t, received, "Hierarchy-policy")
	mu.Unlock()

	var policyDoc struct {
		Creator    string `json:"creator"`
		Attributes []struct {
			Name string `json:"name"`
		} `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(received["Privacy-policy"], &policyDoc))
	assert.Equal(t, "integration", policyDoc.Creator)
	assert.Len(t, policyDoc.Attributes, 3)

	commands := readRunLog(t, runLog)
	assert.Equal(t, []string{"policy", "hierarchy", "submit"}, commands)
}

func TestPipeline_SubmitWithoutPolicyFails(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	projectRoot, err := getProjectRoot()
	require.NoError(t, err)
	dir := t.TempDir()
	policr := buildBinary(t, projectRoot, dir, "policr")

	event := writeFile(t, dir, "event.json", `{"Event":{"Attribute":[{"object_relation":"age"}]}}`)
	cmd := exec.Command(policr, "submit", "--event", event, "--hierarchy", event)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(output), "no privacy policy selected")
}

func run(t *testing.T, dir, binary string, args ...string) string {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("%s %s:\n%s", filepath.Base(binary), strings.Join(args, " "), output)
	}
	require.NoError(t, err)
	return string(output)
}

func readRunLog(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var commands []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry struct {
			Command string `json:"command"`
			Status  string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		assert.Equal(t, "ok", entry.Status, entry.Command)
		commands = append(commands, entry.Command)
	}
	require.NoError(t, scanner.Err())
	return commands
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func getProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Look for go.mod file to identify project root
	for dir := wd; dir != "/"; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
	}

	return wd, nil
}

func buildBinary(t *testing.T, projectRoot, dir, name string) string {
	binaryPath := filepath.Join(dir, name)

	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/"+name)
	cmd.Dir = projectRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Build output: %s", string(output))
		require.NoError(t, err, "Failed to build %s binary", name)
	}

	return binaryPath
}
