package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/abhinaya/internal/filter"
	"github.com/ayusman/abhinaya/internal/gesture"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("ABHINAYA_DATA_DIR", "")
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !cfg.Seated || !cfg.DetectClosestUser || !cfg.IgnoreInferredJoints {
		t.Error("seated, closest user and ignore inferred should default to true")
	}
	if cfg.Smoothing != filter.ProfileDefault {
		t.Errorf("Smoothing = %v, want default", cfg.Smoothing)
	}
	if cfg.CalibrationPose != gesture.None {
		t.Errorf("CalibrationPose = %v, want none", cfg.CalibrationPose)
	}
	want := []gesture.Kind{gesture.Wheel, gesture.RightAboveHead, gesture.LeftAboveHead}
	if diff := cmp.Diff(want, cfg.PlayerGestures); diff != "" {
		t.Errorf("PlayerGestures mismatch (-want +got):\n%s", diff)
	}
	if cfg.GestureGap() != 700*time.Millisecond {
		t.Errorf("GestureGap = %v, want 700ms", cfg.GestureGap())
	}
	if !strings.Contains(cfg.Database, ".abhinaya") {
		t.Errorf("database path should contain .abhinaya: %s", cfg.Database)
	}
	if cfg.FrameInterval() != time.Second/30 {
		t.Errorf("FrameInterval = %v", cfg.FrameInterval())
	}
	if cfg.IdleFrameInterval() != 200*time.Millisecond {
		t.Errorf("IdleFrameInterval = %v", cfg.IdleFrameInterval())
	}
}

func TestDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ABHINAYA_DATA_DIR", dir)

	if got := DataDir(); got != dir {
		t.Errorf("DataDir = %q, want %q", got, dir)
	}
	if got := ConfigPath(); got != filepath.Join(dir, "config.toml") {
		t.Errorf("ConfigPath = %q", got)
	}
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SensorHeight = 0.8
	cfg.SensorAngle = 10
	cfg.Seated = false
	cfg.Smoothing = filter.ProfileMedium
	cfg.UseClippedLegsFilter = true
	cfg.MaxUserDistance = 3

	opts := cfg.FilterOptions()
	if opts.Transform.Height != 0.8 || opts.Transform.AngleDegrees != 10 {
		t.Errorf("transform = %+v", opts.Transform)
	}
	if opts.Rule.Seated || !opts.Rule.IgnoreInferred {
		t.Errorf("rule = %+v", opts.Rule)
	}
	if opts.Smoothing != filter.ProfileMedium || !opts.ClippedLegs || !opts.OrientationConstraints {
		t.Errorf("options = %+v", opts)
	}

	tc := cfg.TrackerConfig()
	if tc.MinUserDistance != 1 || tc.MaxUserDistance != 3 || !tc.DetectClosestUser {
		t.Errorf("tracker config = %+v", tc)
	}
	tc.PlayerGestures[0] = gesture.SwipeLeft
	if cfg.PlayerGestures[0] != gesture.Wheel {
		t.Error("TrackerConfig should copy the player gestures")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative min distance", func(c *Config) { c.MinUserDistance = -1 }, "min_user_distance"},
		{"max below min", func(c *Config) { c.MaxUserDistance = 0.5 }, "max_user_distance"},
		{"sensor angle", func(c *Config) { c.SensorAngle = 120 }, "sensor_angle"},
		{"smoothing", func(c *Config) { c.Smoothing = filter.Profile(9) }, "smoothing"},
		{"calibration pose", func(c *Config) { c.CalibrationPose = gesture.Kind(999) }, "calibration_pose"},
		{"unknown player gesture", func(c *Config) { c.PlayerGestures = []gesture.Kind{gesture.Kind(999)} }, "player_gestures"},
		{"duplicate player gesture", func(c *Config) { c.PlayerGestures = []gesture.Kind{gesture.Wheel, gesture.Wheel} }, "player_gestures"},
		{"negative gap", func(c *Config) { c.MinTimeBetweenGestures = -0.1 }, "min_time_between_gestures"},
		{"frame rate", func(c *Config) { c.FrameRate = 0 }, "frame_rate"},
		{"idle frame rate", func(c *Config) { c.IdleFrameRate = -5 }, "idle_frame_rate"},
		{"database", func(c *Config) { c.Database = "" }, "database"},
		{"serial baud", func(c *Config) { c.Serial.Port = "/dev/ttyUSB0"; c.Serial.BaudRate = 0 }, "serial.baud_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() = %v, want ValidationErrors", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.field, err)
			}
		})
	}
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.toml")).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.FrameRate != 30 {
		t.Errorf("expected defaults, got frame rate %d", cfg.FrameRate)
	}
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "config.toml", `
seated = false
smoothing = "aggressive"
calibration_pose = "right_above_head"
player_gestures = ["swipe_left", "swipe_right"]
max_user_distance = 3.5

[serial]
port = "/dev/ttyACM0"
baud_rate = 115200
`},
		{"yaml", "config.yaml", `
seated: false
smoothing: aggressive
calibration_pose: right_above_head
player_gestures: [swipe_left, swipe_right]
max_user_distance: 3.5
serial:
  port: /dev/ttyACM0
  baud_rate: 115200
`},
		{"json", "config.json", `{
  "seated": false,
  "smoothing": "aggressive",
  "calibration_pose": "right_above_head",
  "player_gestures": ["swipe_left", "swipe_right"],
  "max_user_distance": 3.5,
  "serial": {"port": "/dev/ttyACM0", "baud_rate": 115200}
}`},
		{"autodetect", "abhinaya.conf", `
seated = false
smoothing = "aggressive"
calibration_pose = "right_above_head"
player_gestures = ["swipe_left", "swipe_right"]
max_user_distance = 3.5
serial = { port = "/dev/ttyACM0", baud_rate = 115200 }
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			cfg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if cfg.Seated {
				t.Error("seated should be false")
			}
			if cfg.Smoothing != filter.ProfileAggressive {
				t.Errorf("Smoothing = %v", cfg.Smoothing)
			}
			if cfg.CalibrationPose != gesture.RightAboveHead {
				t.Errorf("CalibrationPose = %v", cfg.CalibrationPose)
			}
			if diff := cmp.Diff([]gesture.Kind{gesture.SwipeLeft, gesture.SwipeRight}, cfg.PlayerGestures); diff != "" {
				t.Errorf("PlayerGestures mismatch (-want +got):\n%s", diff)
			}
			if cfg.MaxUserDistance != 3.5 {
				t.Errorf("MaxUserDistance = %v", cfg.MaxUserDistance)
			}
			if cfg.Serial.Port != "/dev/ttyACM0" || cfg.Serial.BaudRate != 115200 {
				t.Errorf("Serial = %+v", cfg.Serial)
			}
			// Unset keys keep their defaults.
			if cfg.Serial.Interval != 0.1 || cfg.FrameRate != 30 {
				t.Errorf("defaults lost: interval %v, frame rate %d", cfg.Serial.Interval, cfg.FrameRate)
			}
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	badGesture := filepath.Join(dir, "gesture.toml")
	os.WriteFile(badGesture, []byte(`player_gestures = ["moonwalk"]`), 0644)
	if _, err := LoadFile(badGesture); err == nil {
		t.Error("expected error for unknown gesture name")
	}

	badRange := filepath.Join(dir, "range.toml")
	os.WriteFile(badRange, []byte("frame_rate = 0\n"), 0644)
	if _, err := LoadFile(badRange); err == nil || !strings.Contains(err.Error(), "frame_rate") {
		t.Errorf("expected frame_rate validation error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ABHINAYA_LISTEN", "")
	t.Setenv("ABHINAYA_SERIAL_PORT", "/dev/ttyS1")
	t.Setenv("ABHINAYA_SMOOTHING", "none")
	t.Setenv("ABHINAYA_CALIBRATION_POSE", "left_above_head")
	t.Setenv("ABHINAYA_SEATED", "false")
	t.Setenv("ABHINAYA_MAX_USER_DISTANCE", "4")
	t.Setenv("ABHINAYA_TRAY", "not-a-bool")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Listen != "" {
		t.Errorf("Listen = %q, want empty", cfg.Listen)
	}
	if cfg.Serial.Port != "/dev/ttyS1" {
		t.Errorf("Serial.Port = %q", cfg.Serial.Port)
	}
	if cfg.Smoothing != filter.ProfileNone {
		t.Errorf("Smoothing = %v", cfg.Smoothing)
	}
	if cfg.CalibrationPose != gesture.LeftAboveHead {
		t.Errorf("CalibrationPose = %v", cfg.CalibrationPose)
	}
	if cfg.Seated {
		t.Error("Seated should be overridden to false")
	}
	if cfg.MaxUserDistance != 4 {
		t.Errorf("MaxUserDistance = %v", cfg.MaxUserDistance)
	}
	if cfg.Tray {
		t.Error("invalid bool should be ignored")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"config.toml", "config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := DefaultConfig()
			cfg.CalibrationPose = gesture.RightAboveHead
			cfg.Smoothing = filter.ProfileMedium
			cfg.Bridge.Command = "bridge"
			cfg.Bridge.Args = []string{"--fps", "30"}

			if err := SaveConfig(cfg, path); err != nil {
				t.Fatalf("SaveConfig failed: %v", err)
			}
			got, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if diff := cmp.Diff(cfg, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	_, created, err := LoadOrCreate(path)
	if err != nil || !created {
		t.Fatalf("LoadOrCreate = created %v, err %v", created, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	_, created, err = LoadOrCreate(path)
	if err != nil || created {
		t.Fatalf("second LoadOrCreate = created %v, err %v", created, err)
	}
}

func TestLoaderWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping watcher test in short mode")
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("frame_rate = 30\n"), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	defer loader.Close()
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	changed := make(chan *Config, 4)
	loader.OnChange(func(c *Config) { changed <- c })
	if err := loader.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	// An invalid edit is reported and the old config stays.
	if err := os.WriteFile(path, []byte("frame_rate = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-loader.Errors():
		if !strings.Contains(err.Error(), "frame_rate") {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload error")
	}
	if loader.Config().FrameRate != 30 {
		t.Errorf("invalid reload replaced config: frame rate %d", loader.Config().FrameRate)
	}

	if err := os.WriteFile(path, []byte("frame_rate = 60\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changed:
		if c.FrameRate != 60 {
			t.Errorf("reloaded frame rate = %d, want 60", c.FrameRate)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
	if loader.Config().FrameRate != 60 {
		t.Errorf("Config().FrameRate = %d", loader.Config().FrameRate)
	}
}
