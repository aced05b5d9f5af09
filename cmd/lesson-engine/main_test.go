package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/lesson-engine/internal/models"
)

const overlappingSnapshot = `sessions:
  - id: s1
    date: 2024-03-04
    start_time: "09:00"
    end_time: "10:00"
    teacher_id: t1
    classroom_id: "101"
    branch_id: b1
    subject: math
    kind: group
    status: scheduled
  - id: s2
    date: 2024-03-04
    start_time: "09:30"
    end_time: "10:30"
    teacher_id: t1
    classroom_id: "102"
    branch_id: b1
    subject: math
    kind: group
    status: scheduled
  - id: s3
    date: 2024-03-04
    start_time: "10:30"
    end_time: "11:00"
    teacher_id: t1
    classroom_id: "102"
    branch_id: b1
    subject: math
    kind: group
    status: scheduled
`

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	code := execute(cmd)
	return stdout.String(), stderr.String(), code
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, _, code := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "lesson-engine dev")
}

func TestHelpListsCommands(t *testing.T) {
	out, _, code := runCLI(t, "--help")
	assert.Equal(t, 0, code)
	for _, name := range []string{"serve", "detect", "version"} {
		assert.Contains(t, out, name)
	}
}

func TestDetectYAMLSnapshot(t *testing.T) {
	path := writeFile(t, "week.yaml", overlappingSnapshot)

	out, _, code := runCLI(t, "detect", "--file", path)
	require.Equal(t, 0, code)

	var report models.ConflictReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report[models.DimensionTeacher], 1)
	group := report[models.DimensionTeacher][0]
	assert.Equal(t, "t1", group.ResourceID)
	assert.Equal(t, []string{"s1", "s2"}, group.SessionIDs)
	assert.Equal(t, "09:00", group.StartTime)
	assert.Equal(t, "10:30", group.EndTime)
	assert.Empty(t, report[models.DimensionClassroom])
}

func TestDetectJSONSnapshotWithYAMLOutput(t *testing.T) {
	path := writeFile(t, "week.json", `{"sessions": [
		{"id": "a", "date": "2024-03-04", "start_time": "09:00", "end_time": "10:00", "classroom_id": "101", "branch_id": "b1", "kind": "group", "status": "scheduled"},
		{"id": "b", "date": "2024-03-04", "start_time": "09:59", "end_time": "10:15", "classroom_id": "101", "branch_id": "b1", "kind": "group", "status": "scheduled"}
	]}`)

	out, _, code := runCLI(t, "detect", "-f", path, "-o", "yaml", "--dimension", "classroom")
	require.Equal(t, 0, code)

	var report map[string][]models.ConflictGroup
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	require.Len(t, report["classroom"], 1)
	assert.Equal(t, "101", report["classroom"][0].ResourceID)
	assert.Equal(t, []string{"a", "b"}, report["classroom"][0].SessionIDs)
	_, hasTeacher := report["teacher"]
	assert.False(t, hasTeacher)
}

func TestDetectFailOnConflict(t *testing.T) {
	path := writeFile(t, "week.yml", overlappingSnapshot)

	_, stderr, code := runCLI(t, "detect", "--file", path, "--fail-on-conflict")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "conflicts found")
}

func TestDetectRejectsInvalidSnapshot(t *testing.T) {
	bad := strings.Replace(overlappingSnapshot, `end_time: "10:00"`, `end_time: "08:00"`, 1)
	path := writeFile(t, "bad.yaml", bad)

	_, stderr, code := runCLI(t, "detect", "--file", path)
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
}

func TestDetectRequiresFile(t *testing.T) {
	_, stderr, code := runCLI(t, "detect")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "file")
}
