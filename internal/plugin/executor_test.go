package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin into a temp directory.
func scriptPlugin(t *testing.T, name, script string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell plugin on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    actions,
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "test-plugin",
		`echo '{"success":true,"data":{"message":"hello world"}}'`+"\n", "test-action")

	response, err := NewExecutor(5*time.Second).Execute(plugin, &Request{
		Action:  "test-action",
		Gesture: "swipe_left",
		Config:  json.RawMessage(`{"key":"value"}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]any
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo-plugin", `INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`, "echo")

	response, err := NewExecutor(5*time.Second).Execute(plugin, &Request{
		Action:  "echo",
		Gesture: "wheel",
		UserID:  3,
		Joint:   "HandRight",
		Output:  [3]float64{0, 0, 30},
		Config:  json.RawMessage(`{"setting":"enabled"}`),
		Params:  json.RawMessage(`{"count":42}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	got := data.Received
	if got.Action != "echo" || got.Gesture != "wheel" || got.UserID != 3 || got.Joint != "HandRight" {
		t.Errorf("received request = %+v", got)
	}
	if got.Output[2] != 30 {
		t.Errorf("output = %v, want z 30", got.Output)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow-plugin", "sleep 10\necho '{\"success\":true}'\n", "slow")

	_, err := NewExecutor(100*time.Millisecond).Execute(plugin, &Request{Action: "slow", Gesture: "swipe_right"})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got: %v", err)
	}
}

func TestExecutor_ContextCancelled(t *testing.T) {
	plugin := scriptPlugin(t, "slow-plugin", "sleep 10\necho '{\"success\":true}'\n", "slow")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := NewExecutor(5*time.Second).ExecuteContext(ctx, plugin, &Request{Action: "slow"})
	if err == nil || !strings.Contains(err.Error(), "cancelled") {
		t.Errorf("expected cancellation error, got: %v", err)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := scriptPlugin(t, "error-plugin",
		`echo '{"success":false,"error":"something went wrong"}'`+"\n", "fail")

	response, err := NewExecutor(5*time.Second).Execute(plugin, &Request{Action: "fail"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", response.Error)
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"invalid json", "echo 'not valid json'\n", "parse plugin response"},
		{"non-zero exit", "echo 'Error: something failed' >&2\nexit 1\n", "something failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := scriptPlugin(t, "bad-plugin", tt.script, "bad")
			_, err := NewExecutor(5*time.Second).Execute(plugin, &Request{Action: "bad"})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(3 * time.Second).Timeout(); got != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", got)
	}
	if got := NewExecutor(0).Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout() = %v, want default %v", got, DefaultTimeout)
	}
}
