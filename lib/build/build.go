// Copyright (C) 2025 The Geocoding Authors.

// Package build holds version metadata set at link time via -ldflags.
package build

import (
	"fmt"
	"runtime"
	"strconv"
	"time"
)

var (
	Version    = "unknown-dev"
	BuildStamp = "0"
	BuildUser  = "unknown"
	BuildHost  = "unknown"
)

// BuildDate and LongVersion are computed from the above at init time.
var (
	BuildDate   time.Time
	LongVersion string
)

func init() {
	Recompute()
}

// Recompute refreshes BuildDate/LongVersion; exported so tests can exercise
// it after overriding the package vars above.
func Recompute() {
	stamp, _ := strconv.ParseInt(BuildStamp, 10, 64)
	BuildDate = time.Unix(stamp, 0)

	date := BuildDate.UTC().Format("2006-01-02 15:04:05 MST")
	LongVersion = fmt.Sprintf("geocoder %s (%s %s-%s) %s@%s %s",
		Version, runtime.Version(), runtime.GOOS, runtime.GOARCH, BuildUser, BuildHost, date)
}
