package main

import (
	"reflect"
	"testing"
)

func TestKeystroke(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		params  KeystrokeParams
		want    []string
		wantErr bool
	}{
		{
			name:   "plain key on macOS",
			goos:   "darwin",
			params: KeystrokeParams{Key: "a"},
			want:   []string{"osascript", "-e", `tell application "System Events" to keystroke "a"`},
		},
		{
			name:   "modifiers on macOS",
			goos:   "darwin",
			params: KeystrokeParams{Key: "f", Modifiers: []string{"Cmd", "ctrl", "hyper"}},
			want:   []string{"osascript", "-e", `tell application "System Events" to keystroke "f" using {command down, control down}`},
		},
		{
			name:   "modifiers on linux",
			goos:   "linux",
			params: KeystrokeParams{Key: "Right", Modifiers: []string{"shift"}},
			want:   []string{"xdotool", "key", "shift+Right"},
		},
		{name: "missing key", goos: "linux", params: KeystrokeParams{}, wantErr: true},
		{name: "unsupported platform", goos: "plan9", params: KeystrokeParams{Key: "a"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keystroke(tt.goos, tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("keystroke() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("keystroke() = %q, want %q", got, tt.want)
			}
		})
	}
}
