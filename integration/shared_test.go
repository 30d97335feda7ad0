//go:build basic || database

// Package integration contains integration tests for perfhist.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Or with containers: go test -tags database ./integration
package integration

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a shared perfhist binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// fixtureStart is a Wednesday, so each weekly fixture lands mid-week.
var fixtureStart = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the perfhist binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "perfhist-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binPath := filepath.Join(tempDir, "perfhist")
		buildCmd := exec.Command("go", "build", "-o", binPath, ".")
		buildCmd.Dir = ".." // Build from project root
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build perfhist: %v", err))
		}

		sharedBinaryPath = binPath
	})

	return sharedBinaryPath
}

// writeFixture writes weeks rustc documents into a new temp dir. The serde total
// starts at 100 seconds and grows by 10% every week.
func writeFixture(t *testing.T, weeks int) string {
	t.Helper()
	dir := t.TempDir()
	total := 100.0
	for i := range weeks {
		date := fixtureStart.AddDate(0, 0, 7*i)
		doc := map[string]any{
			"header": map[string]any{
				"commit": fmt.Sprintf("commit%02d", i),
				"date":   date.Format("Mon Jan _2 15:04:05 2006 -0700"),
			},
			"times": []any{
				map[string]any{
					"crate": "serde",
					"total": total,
					"times": map[string]any{
						"typeck": map[string]any{"percent": 50.0, "time": total / 2},
					},
					"rss": map[string]any{"typeck": 1024 * (i + 1)},
				},
			},
		}
		data, err := json.Marshal(doc)
		require.NoError(t, err)
		name := fmt.Sprintf("rustc--%s.json", date.Format("2006-01-02-15-04-05"))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
		total *= 1.1
	}
	return dir
}

// runCommand runs the perfhist binary and returns its stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = t.TempDir() // Keep default SQLite files out of the repo
	output, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), output, stderr)
		return string(output), err
	}
	return string(output), nil
}
