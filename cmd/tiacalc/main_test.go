package main

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_FlagsText(t *testing.T) {
	code, out, stderr := runCLI(t, "-ratings", "4,4,4,4,4,4,4,4", "-class", "10:6", "-class", "10:6")
	require.Equal(t, exitOK, code, stderr)

	assert.Contains(t, out, "Total points")
	assert.Contains(t, out, "70.0 / 100")
	assert.Contains(t, out, "Acknowledged")
	assert.Contains(t, out, "60.0% (12 of 20)")
	assert.Contains(t, out, "Recognized needs 4.0 more points")
}

func TestRun_JSON(t *testing.T) {
	code, out, stderr := runCLI(t, "-ratings", "5,5,5,5,5,5,5,5", "-class", "20:20", "-format", "json")
	require.Equal(t, exitOK, code, stderr)

	var resp struct {
		TotalPoints     float64 `json:"total_points"`
		Designation     string  `json:"designation"`
		OverallEligible bool    `json:"overall_eligible"`
	}
	require.NoError(t, stdjson.Unmarshal([]byte(out), &resp), out)
	assert.InDelta(t, 100.0, resp.TotalPoints, 1e-9)
	assert.Equal(t, "Master", resp.Designation)
	assert.True(t, resp.OverallEligible)
}

func TestRun_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ws.yaml")
	require.NoError(t, os.WriteFile(p, []byte("ratings:\n  2.1: 3\nclasses:\n  - {size: 25, met: 18}\n"), 0o600))

	code, out, stderr := runCLI(t, "-file", p)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, out, "66.0 / 100")
	assert.Contains(t, out, "No Designation")

	// -ratings overrides the file's ratings, classes still come from the file.
	code, out, _ = runCLI(t, "-file", p, "-ratings", "5,5,5,5,5,5,5,5")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "86.0 / 100")
	assert.Contains(t, out, "Exemplary")
}

func TestRun_NoClasses(t *testing.T) {
	code, out, _ := runCLI(t, "-ratings", "2.1=5")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "0.0% (0 of 0)")
}

func TestRun_PolicyFromConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("policy:\n  rating_floor: 4.5\n"), 0o600))

	code, out, stderr := runCLI(t, "-config", p, "-ratings", "4,4,4,4,4,4,4,4", "-class", "10:6", "-class", "10:6")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, out, "Rating floor 4.5")
	assert.Contains(t, out, "not met")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no input", nil},
		{"bad ratings", []string{"-ratings", "4,4"}},
		{"rating out of range", []string{"-ratings", "4,4,4,4,4,4,4,6"}},
		{"bad class", []string{"-class", "5:9"}},
		{"bad format", []string{"-class", "5:4", "-format", "xml"}},
		{"unknown flag", []string{"-nope"}},
		{"stray argument", []string{"-class", "5:4", "extra"}},
		{"missing file", []string{"-file", filepath.Join(t.TempDir(), "missing.yaml")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tc.args...)
			assert.Equal(t, exitUsage, code)
			assert.NotEmpty(t, stderr)
		})
	}
}

func TestRun_BadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("policy:\n  rating_weight: 80\n"), 0o600))

	code, _, stderr := runCLI(t, "-config", p, "-class", "5:4")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "policy")
}

func TestRun_Help(t *testing.T) {
	code, _, stderr := runCLI(t, "-h")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "-ratings")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRun_WriteFailure(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		t.Run(format, func(t *testing.T) {
			var errOut bytes.Buffer
			code := run([]string{"-class", "10:6", "-format", format}, failingWriter{}, &errOut)
			assert.Equal(t, exitFailure, code)
			assert.Contains(t, errOut.String(), "write result")
			assert.Contains(t, errOut.String(), "disk full")
		})
	}
}
