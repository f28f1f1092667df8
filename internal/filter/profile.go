// Package filter turns raw skeleton slots into cleaned, debounced joint data.
package filter

import (
	"fmt"
	"strings"
)

// Profile selects a joint smoothing preset.
type Profile int

// Smoothing presets.
const (
	ProfileNone Profile = iota
	ProfileDefault
	ProfileMedium
	ProfileAggressive
)

var profileNames = map[Profile]string{
	ProfileNone:       "none",
	ProfileDefault:    "default",
	ProfileMedium:     "medium",
	ProfileAggressive: "aggressive",
}

// SmoothingParams are the Holt filter constants of a profile.
type SmoothingParams struct {
	Smoothing          float64
	Correction         float64
	Prediction         float64
	JitterRadius       float64
	MaxDeviationRadius float64
}

// Params returns the filter constants for the profile.
// ProfileNone and unknown profiles return the zero value.
func (p Profile) Params() SmoothingParams {
	switch p {
	case ProfileDefault:
		return SmoothingParams{0.5, 0.5, 0.5, 0.05, 0.04}
	case ProfileMedium:
		return SmoothingParams{0.5, 0.1, 0.5, 0.1, 0.1}
	case ProfileAggressive:
		return SmoothingParams{0.7, 0.3, 1.0, 1.0, 1.0}
	}
	return SmoothingParams{}
}

func (p Profile) String() string {
	if name, ok := profileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

// ParseProfile converts a profile name into a Profile.
func ParseProfile(s string) (Profile, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p, n := range profileNames {
		if n == name {
			return p, nil
		}
	}
	return ProfileNone, fmt.Errorf("unknown smoothing profile %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Profile) MarshalText() ([]byte, error) {
	if _, ok := profileNames[p]; !ok {
		return nil, fmt.Errorf("unknown smoothing profile %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Profile) UnmarshalText(text []byte) error {
	parsed, err := ParseProfile(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
