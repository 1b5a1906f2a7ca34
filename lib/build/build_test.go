// Copyright (C) 2025 The Geocoding Authors.

package build

import "testing"

func TestRecompute(t *testing.T) {
	Version = "v1.2.3"
	BuildStamp = "1700000000"
	BuildUser = "ci"
	BuildHost = "runner"
	Recompute()

	if LongVersion == "" {
		t.Fatal("LongVersion should not be empty")
	}
	if BuildDate.IsZero() {
		t.Fatal("BuildDate should be parsed from BuildStamp")
	}
}
