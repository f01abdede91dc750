package convert

import (
	"errors"
	"testing"
)

func TestProfileOptions(t *testing.T) {
	tests := []struct {
		name string
		want Options
	}{
		{"", DefaultOptions()},
		{" Unified ", DefaultOptions()},
		{"basic", Options{Profile: ProfileBasic, ExpandParallel: true, BuildMatrix: true}},
		{"enhanced", Options{Profile: ProfileEnhanced, InjectTools: true, InjectSecrets: true, DockerBroadcast: true, TestMatrix: true}},
	}
	for _, tt := range tests {
		got, err := ProfileOptions(tt.name)
		if err != nil {
			t.Fatalf("ProfileOptions(%q): %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("ProfileOptions(%q) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
	if _, err := ProfileOptions("fancy"); !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("expected ErrUnknownProfile, got %v", err)
	}
}

func TestOptionsFromMap(t *testing.T) {
	opts, err := OptionsFromMap(map[string]interface{}{
		"profile":          "basic",
		"docker_broadcast": "true",
		"strict":           true,
		"max_blocks":       "64",
	})
	if err != nil {
		t.Fatalf("OptionsFromMap: %v", err)
	}
	want := Options{
		Profile:         ProfileBasic,
		ExpandParallel:  true,
		BuildMatrix:     true,
		DockerBroadcast: true,
		Strict:          true,
		MaxBlocks:       64,
	}
	if opts != want {
		t.Fatalf("opts = %+v, want %+v", opts, want)
	}
}

func TestOptions_Apply(t *testing.T) {
	base := DefaultOptions()
	base.Strict = true
	base.DockerBroadcast = true

	got, err := base.Apply(map[string]interface{}{"inject_tools": "false", "profile": "basic"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := base
	want.InjectTools = false
	if got != want {
		t.Fatalf("opts = %+v, want %+v", got, want)
	}
	if !base.InjectTools {
		t.Fatal("Apply must not modify the receiver")
	}
	if _, err := base.Apply(map[string]interface{}{"bogus": "1"}); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestOptionsFromMap_Errors(t *testing.T) {
	if _, err := OptionsFromMap(map[string]interface{}{"profile": "nope"}); !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("expected ErrUnknownProfile, got %v", err)
	}
	if _, err := OptionsFromMap(map[string]interface{}{"bogus": "1"}); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if _, err := OptionsFromMap(map[string]interface{}{"strict": "maybe"}); err == nil {
		t.Fatal("expected error for invalid bool")
	}
}
