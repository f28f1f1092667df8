package main

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		req     Request
		want    string
		wantErr bool
	}{
		{Request{Action: "volume-mute"}, "volume-mute", false},
		{Request{Action: "auto", Gesture: "swipe_right"}, "media-next", false},
		{Request{Action: "auto", Gesture: "left_above_head"}, "volume-down", false},
		{Request{Action: "auto", Gesture: "wheel"}, "", true},
		{Request{Action: "invalid-action"}, "", true},
	}
	for _, tt := range tests {
		got, cmd, err := resolve(tt.req)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolve(%+v) error = %v, wantErr %v", tt.req, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("resolve(%+v) = %q, want %q", tt.req, got, tt.want)
		}
		if err == nil && (cmd.appleScript == "" || len(cmd.linux) == 0) {
			t.Errorf("command for %q is incomplete", got)
		}
	}
}
