package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root string, m Manifest) string {
	t.Helper()

	dir := filepath.Join(root, m.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return dir
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	dir := writeManifest(t, root, Manifest{
		Name:        "test-plugin",
		Version:     "1.0.0",
		Description: "A test plugin",
		Executable:  "test-plugin",
		Actions:     []string{"action1", "action2"},
	})

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "test-plugin" {
		t.Errorf("expected plugin name 'test-plugin', got %q", plugin.Manifest.Name)
	}
	if plugin.Manifest.Description != "A test plugin" {
		t.Errorf("expected description 'A test plugin', got %q", plugin.Manifest.Description)
	}
	if len(plugin.Manifest.Actions) != 2 {
		t.Errorf("expected 2 actions, got %d", len(plugin.Manifest.Actions))
	}
	if plugin.Path != dir {
		t.Errorf("expected path %q, got %q", dir, plugin.Path)
	}
	if plugin.Executable != filepath.Join(dir, "test-plugin") {
		t.Errorf("unexpected executable %q", plugin.Executable)
	}
}

func TestManager_Discover_SortedAndRescanned(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"plugin-b", "plugin-a"} {
		writeManifest(t, root, Manifest{Name: name, Executable: name})
	}

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "plugin-a" || plugins[1].Manifest.Name != "plugin-b" {
		t.Errorf("plugins not sorted: %s, %s", plugins[0].Manifest.Name, plugins[1].Manifest.Name)
	}

	if err := os.RemoveAll(filepath.Join(root, "plugin-a")); err != nil {
		t.Fatal(err)
	}
	if err := manager.Discover(); err != nil {
		t.Fatalf("second Discover() failed: %v", err)
	}
	if _, err := manager.Get("plugin-a"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("removed plugin still listed: %v", err)
	}
}

func TestManager_Discover_Skips(t *testing.T) {
	root := t.TempDir()

	bad := filepath.Join(root, "bad-plugin")
	os.MkdirAll(bad, 0755)
	os.WriteFile(filepath.Join(bad, "plugin.json"), []byte("not valid json"), 0644)

	unnamed := filepath.Join(root, "unnamed")
	os.MkdirAll(unnamed, 0755)
	os.WriteFile(filepath.Join(unnamed, "plugin.json"), []byte(`{"executable":"x"}`), 0644)

	os.MkdirAll(filepath.Join(root, "no-manifest"), 0755)
	os.WriteFile(filepath.Join(root, "stray-file"), []byte("x"), 0644)

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed unexpectedly: %v", err)
	}
	if n := len(manager.List()); n != 0 {
		t.Fatalf("expected 0 plugins, got %d", n)
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))

	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed on non-existent dir: %v", err)
	}
	if n := len(manager.List()); n != 0 {
		t.Fatalf("expected 0 plugins, got %d", n)
	}
}

func TestManager_Get(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, Manifest{Name: "my-plugin", Version: "2.0.0", Executable: "bin"})

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugin, err := manager.Get("my-plugin")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if plugin.Manifest.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %q", plugin.Manifest.Version)
	}

	if _, err := manager.Get("nonexistent-plugin"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_PluginDir(t *testing.T) {
	pluginDir := "/path/to/plugins"
	if got := NewManager(pluginDir).PluginDir(); got != pluginDir {
		t.Errorf("expected plugin dir %q, got %q", pluginDir, got)
	}
}

func TestManifest_HasAction(t *testing.T) {
	m := Manifest{Actions: []string{"key", "shortcut"}}
	if !m.HasAction("key") || m.HasAction("volume-up") {
		t.Error("HasAction does not follow the declared actions")
	}
	if !(&Manifest{}).HasAction("anything") {
		t.Error("a manifest without actions should accept any action")
	}
}
