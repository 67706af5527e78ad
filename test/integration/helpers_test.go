package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

const (
	testAPIPort = 15555
	testAPIAddr = "http://127.0.0.1:15555"
)

// StatusResponse mirrors GET /api/v1/status
type StatusResponse struct {
	Status    string `json:"status"`
	TotalSize int    `json:"total_size"`
	Viewers   int    `json:"viewers"`
	IndexKeys bool   `json:"index_keys"`
	Input     string `json:"input"`
}

// Entry mirrors one window message
type Entry struct {
	Seq  int            `json:"seq"`
	Pos  int            `json:"pos"`
	Data map[string]any `json:"data"`
}

// LogsResponse mirrors GET /api/v1/logs
type LogsResponse struct {
	Type      string `json:"type"`
	Mode      string `json:"mode"`
	TotalSize int    `json:"totalSize"`
	Window    struct {
		Size     int     `json:"size"`
		Messages []Entry `json:"messages"`
	} `json:"window"`
}

// buildBinary builds the logview binary and returns its path
func buildBinary(t *testing.T) string {
	t.Helper()

	// Get project root (two directories up from test/integration)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	projectRoot := filepath.Join(wd, "..", "..")

	binary := filepath.Join(t.TempDir(), "logview")

	cmd := exec.Command("go", "build", "-o", binary, "./cmd/logview")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, output)
	}

	return binary
}

// waitForAPI waits for the API to be ready
func waitForAPI(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(addr + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("API did not become ready within %v", timeout)
}

// startServe runs "logview serve" in dir with input as its stdin
func startServe(t *testing.T, binary, dir string, input io.Reader, args ...string) *exec.Cmd {
	t.Helper()

	cmd := exec.Command(binary, append([]string{"serve", "--port", fmt.Sprint(testAPIPort)}, args...)...)
	cmd.Dir = dir
	cmd.Stdin = input
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start logview: %v", err)
	}

	return cmd
}

// runLogview runs a one-shot logview command in dir and returns its output
func runLogview(t *testing.T, binary, dir string, args ...string) (string, error) {
	t.Helper()

	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// killLogview forcefully kills the logview process
func killLogview(cmd *exec.Cmd) {
	if cmd != nil && cmd.Process != nil {
		cmd.Process.Kill()
		cmd.Wait()
	}
}

// getJSON decodes a GET response from the API into v
func getJSON(t *testing.T, addr, path string, query url.Values, v any) int {
	t.Helper()

	u := addr + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	resp, err := http.Get(u)
	requireNoError(t, err, "GET "+path)
	defer resp.Body.Close()

	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("failed to decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

// waitForLines waits until the server has stored n lines
func waitForLines(t *testing.T, addr string, n int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	var last int
	for time.Now().Before(deadline) {
		var status StatusResponse
		if getJSON(t, addr, "/api/v1/status", nil, &status) == http.StatusOK {
			last = status.TotalSize
			if last >= n {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not store %d lines within %v (last: %d)", n, timeout, last)
}

// waitForStateFile waits for the state file to be created
func waitForStateFile(t *testing.T, path string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("state file %s was not created within %v", path, timeout)
}

// requireNoError fails the test if err is not nil
func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// skipShort skips the test if -short flag is provided
func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// withTimeout runs the test with a timeout
func withTimeout(t *testing.T, timeout time.Duration, f func()) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		f()
		close(done)
	}()

	select {
	case <-done:
		// Test completed
	case <-ctx.Done():
		t.Fatal("test timed out")
	}
}
