// Package gesture recognizes body gestures from cleaned skeleton poses.
//
// Every gesture kind is a small state machine: a table of phase functions
// indexed by the record's phase. Phase 0 seeks a starting pose, later
// phases confirm it with a timed hold or a timed transition. New kinds
// plug in through Register without touching the built-in ones.
package gesture

import (
	"fmt"
	"strings"
)

// Kind identifies a gesture.
type Kind int

// Built-in gesture kinds.
const (
	None Kind = iota
	SwipeLeft
	SwipeRight
	Wheel
	RightAboveHead
	LeftAboveHead
)

func (k Kind) String() string {
	if def, ok := lookup(k); ok {
		return def.Name
	}
	if k == None {
		return "none"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k has a registered definition.
func (k Kind) Valid() bool {
	_, ok := lookup(k)
	return ok
}

// ParseKind converts a gesture name such as "swipe_left" into a Kind.
// "none" and the empty string parse to None.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" || name == "none" {
		return None, nil
	}

	registry.mu.RLock()
	defer registry.mu.RUnlock()
	for k, def := range registry.defs {
		if def.Name == name {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown gesture %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
