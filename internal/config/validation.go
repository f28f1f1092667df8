package config

import (
	"fmt"
	"strings"

	"github.com/ayusman/abhinaya/internal/gesture"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.MinUserDistance < 0 {
		add("min_user_distance", "must not be negative, got %v", c.MinUserDistance)
	}
	if c.MaxUserDistance < 0 {
		add("max_user_distance", "must not be negative, got %v", c.MaxUserDistance)
	}
	if c.MaxUserDistance > 0 && c.MaxUserDistance < c.MinUserDistance {
		add("max_user_distance", "must be 0 or at least min_user_distance (%v)", c.MinUserDistance)
	}
	if c.SensorAngle < -90 || c.SensorAngle > 90 {
		add("sensor_angle", "must be within [-90, 90], got %v", c.SensorAngle)
	}
	if _, err := c.Smoothing.MarshalText(); err != nil {
		add("smoothing", "%v", err)
	}
	if c.CalibrationPose != gesture.None && !c.CalibrationPose.Valid() {
		add("calibration_pose", "unknown gesture %v", c.CalibrationPose)
	}

	seen := make(map[gesture.Kind]bool)
	for _, k := range c.PlayerGestures {
		if !k.Valid() {
			add("player_gestures", "unknown gesture %v", k)
			continue
		}
		if seen[k] {
			add("player_gestures", "duplicate gesture %v", k)
		}
		seen[k] = true
	}

	if c.MinTimeBetweenGestures < 0 {
		add("min_time_between_gestures", "must not be negative, got %v", c.MinTimeBetweenGestures)
	}
	if c.FrameRate <= 0 {
		add("frame_rate", "must be positive, got %d", c.FrameRate)
	}
	if c.IdleFrameRate <= 0 {
		add("idle_frame_rate", "must be positive, got %d", c.IdleFrameRate)
	}
	if c.IdleTimeout < 0 {
		add("idle_timeout", "must not be negative, got %v", c.IdleTimeout)
	}
	if c.Database == "" {
		add("database", "path is required")
	}
	if c.Serial.Port != "" {
		if c.Serial.BaudRate <= 0 {
			add("serial.baud_rate", "must be positive, got %d", c.Serial.BaudRate)
		}
		if c.Serial.Interval <= 0 {
			add("serial.interval", "must be positive, got %v", c.Serial.Interval)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
