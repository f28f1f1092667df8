// Package config handles configuration loading and validation for abhinaya.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ayusman/abhinaya/internal/filter"
	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/skeleton"
	"github.com/ayusman/abhinaya/internal/user"
)

// Config holds the complete application configuration.
type Config struct {
	// Seated makes the knees and hips strictly tracked joints.
	Seated bool `toml:"seated" json:"seated" yaml:"seated"`

	// SensorHeight and SensorAngle place the sensor in the world, in metres and degrees.
	SensorHeight float64 `toml:"sensor_height" json:"sensor_height" yaml:"sensor_height"`
	SensorAngle  float64 `toml:"sensor_angle" json:"sensor_angle" yaml:"sensor_angle"`

	// MinUserDistance and MaxUserDistance gate the player's data. 0 max means unbounded.
	MinUserDistance float64 `toml:"min_user_distance" json:"min_user_distance" yaml:"min_user_distance"`
	MaxUserDistance float64 `toml:"max_user_distance" json:"max_user_distance" yaml:"max_user_distance"`

	DetectClosestUser    bool `toml:"detect_closest_user" json:"detect_closest_user" yaml:"detect_closest_user"`
	IgnoreInferredJoints bool `toml:"ignore_inferred_joints" json:"ignore_inferred_joints" yaml:"ignore_inferred_joints"`

	Smoothing filter.Profile `toml:"smoothing" json:"smoothing" yaml:"smoothing"`

	UseBoneOrientationsFilter     bool `toml:"use_bone_orientations_filter" json:"use_bone_orientations_filter" yaml:"use_bone_orientations_filter"`
	UseClippedLegsFilter          bool `toml:"use_clipped_legs_filter" json:"use_clipped_legs_filter" yaml:"use_clipped_legs_filter"`
	UseBoneOrientationsConstraint bool `toml:"use_bone_orientations_constraint" json:"use_bone_orientations_constraint" yaml:"use_bone_orientations_constraint"`
	UseSelfIntersectionConstraint bool `toml:"use_self_intersection_constraint" json:"use_self_intersection_constraint" yaml:"use_self_intersection_constraint"`

	CalibrationPose gesture.Kind   `toml:"calibration_pose" json:"calibration_pose" yaml:"calibration_pose"`
	PlayerGestures  []gesture.Kind `toml:"player_gestures" json:"player_gestures" yaml:"player_gestures"`

	// MinTimeBetweenGestures is in seconds.
	MinTimeBetweenGestures float64 `toml:"min_time_between_gestures" json:"min_time_between_gestures" yaml:"min_time_between_gestures"`

	// FrameRate and IdleFrameRate are host tick rates in frames per second.
	FrameRate     int `toml:"frame_rate" json:"frame_rate" yaml:"frame_rate"`
	IdleFrameRate int `toml:"idle_frame_rate" json:"idle_frame_rate" yaml:"idle_frame_rate"`
	// IdleTimeout is in seconds.
	IdleTimeout float64 `toml:"idle_timeout" json:"idle_timeout" yaml:"idle_timeout"`

	Database  string `toml:"database" json:"database" yaml:"database"`
	Listen    string `toml:"listen" json:"listen" yaml:"listen"`
	PluginDir string `toml:"plugin_dir" json:"plugin_dir" yaml:"plugin_dir"`

	Bridge BridgeConfig `toml:"bridge" json:"bridge" yaml:"bridge"`
	Serial SerialConfig `toml:"serial" json:"serial" yaml:"serial"`

	Tray   bool `toml:"tray" json:"tray" yaml:"tray"`
	Record bool `toml:"record" json:"record" yaml:"record"`
}

// BridgeConfig names the sensor bridge process.
type BridgeConfig struct {
	Command string   `toml:"command" json:"command" yaml:"command"`
	Args    []string `toml:"args" json:"args" yaml:"args"`
}

// SerialConfig configures the vehicle control link. An empty port disables it.
type SerialConfig struct {
	Port     string `toml:"port" json:"port" yaml:"port"`
	BaudRate int    `toml:"baud_rate" json:"baud_rate" yaml:"baud_rate"`
	// Interval between writes, in seconds.
	Interval float64 `toml:"interval" json:"interval" yaml:"interval"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	dir := DataDir()
	return &Config{
		Seated:                        true,
		SensorHeight:                  1.0,
		MinUserDistance:               1.0,
		DetectClosestUser:             true,
		IgnoreInferredJoints:          true,
		Smoothing:                     filter.ProfileDefault,
		UseBoneOrientationsConstraint: true,
		CalibrationPose:               gesture.None,
		PlayerGestures:                []gesture.Kind{gesture.Wheel, gesture.RightAboveHead, gesture.LeftAboveHead},
		MinTimeBetweenGestures:        0.7,
		FrameRate:                     30,
		IdleFrameRate:                 5,
		IdleTimeout:                   2.0,
		Database:                      filepath.Join(dir, "abhinaya.db"),
		Listen:                        ":8080",
		PluginDir:                     filepath.Join(dir, "plugins"),
		Serial: SerialConfig{
			BaudRate: 9600,
			Interval: 0.1,
		},
	}
}

// DataDir returns the base abhinaya directory, ~/.abhinaya unless
// ABHINAYA_DATA_DIR overrides it.
func DataDir() string {
	if dir := os.Getenv("ABHINAYA_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".abhinaya"
	}
	return filepath.Join(home, ".abhinaya")
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// ApplyEnvOverrides applies ABHINAYA_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ABHINAYA_DATABASE"); v != "" {
		c.Database = v
	}
	if v, ok := os.LookupEnv("ABHINAYA_LISTEN"); ok {
		c.Listen = v
	}
	if v := os.Getenv("ABHINAYA_PLUGIN_DIR"); v != "" {
		c.PluginDir = v
	}
	if v := os.Getenv("ABHINAYA_BRIDGE_COMMAND"); v != "" {
		c.Bridge.Command = v
	}
	if v, ok := os.LookupEnv("ABHINAYA_SERIAL_PORT"); ok {
		c.Serial.Port = v
	}
	if v := os.Getenv("ABHINAYA_SMOOTHING"); v != "" {
		if err := c.Smoothing.UnmarshalText([]byte(v)); err != nil {
			log.Printf("Ignoring ABHINAYA_SMOOTHING: %v", err)
		}
	}
	if v := os.Getenv("ABHINAYA_CALIBRATION_POSE"); v != "" {
		if err := c.CalibrationPose.UnmarshalText([]byte(v)); err != nil {
			log.Printf("Ignoring ABHINAYA_CALIBRATION_POSE: %v", err)
		}
	}
	envBool("ABHINAYA_SEATED", &c.Seated)
	envBool("ABHINAYA_TRAY", &c.Tray)
	envBool("ABHINAYA_RECORD", &c.Record)
	envFloat("ABHINAYA_MIN_USER_DISTANCE", &c.MinUserDistance)
	envFloat("ABHINAYA_MAX_USER_DISTANCE", &c.MaxUserDistance)
}

func envBool(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Ignoring %s: %v", key, err)
		return
	}
	*dst = b
}

func envFloat(key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Ignoring %s: %v", key, err)
		return
	}
	*dst = f
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.PlayerGestures = append([]gesture.Kind(nil), c.PlayerGestures...)
	clone.Bridge.Args = append([]string(nil), c.Bridge.Args...)
	return &clone
}

// FilterOptions returns the preprocessor options.
func (c *Config) FilterOptions() filter.Options {
	return filter.Options{
		Transform: skeleton.SensorTransform{
			Height:       c.SensorHeight,
			AngleDegrees: c.SensorAngle,
		},
		Rule: filter.TrackedRule{
			IgnoreInferred: c.IgnoreInferredJoints,
			Seated:         c.Seated,
		},
		Smoothing:              c.Smoothing,
		ClippedLegs:            c.UseClippedLegsFilter,
		SelfIntersection:       c.UseSelfIntersectionConstraint,
		OrientationConstraints: c.UseBoneOrientationsConstraint,
		OrientationSmoothing:   c.UseBoneOrientationsFilter,
	}
}

// TrackerConfig returns the user tracker settings.
func (c *Config) TrackerConfig() user.Config {
	return user.Config{
		DetectClosestUser: c.DetectClosestUser,
		MinUserDistance:   c.MinUserDistance,
		MaxUserDistance:   c.MaxUserDistance,
		CalibrationPose:   c.CalibrationPose,
		PlayerGestures:    append([]gesture.Kind(nil), c.PlayerGestures...),
	}
}

// GestureGap returns the pause after a completed gesture.
func (c *Config) GestureGap() time.Duration {
	return seconds(c.MinTimeBetweenGestures)
}

// FrameInterval returns the active tick interval.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// IdleFrameInterval returns the idle tick interval.
func (c *Config) IdleFrameInterval() time.Duration {
	return time.Second / time.Duration(c.IdleFrameRate)
}

// IdleAfter returns how long without a body before idling.
func (c *Config) IdleAfter() time.Duration {
	return seconds(c.IdleTimeout)
}

// SerialInterval returns the time between serial writes.
func (c *Config) SerialInterval() time.Duration {
	return seconds(c.Serial.Interval)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
