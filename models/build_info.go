package models

import "strings"

// BuildNotAvailable is reported for build metadata the linker did not set.
const BuildNotAvailable = "N/A"

// BuildInfo identifies a studysync or cachectl binary. Both commands take
// their values from -ldflags "-X main.buildVersion=... -X main.buildDate=...
// -X main.buildCommit=...".
type BuildInfo struct {
	version string
	date    string
	commit  string
}

// NewBuildInfo returns the build info with blank values replaced by
// [BuildNotAvailable].
func NewBuildInfo(version, date, commit string) BuildInfo {
	return BuildInfo{
		version: orNotAvailable(version),
		date:    orNotAvailable(date),
		commit:  orNotAvailable(commit),
	}
}

func (b BuildInfo) Version() string { return b.version }

func (b BuildInfo) Date() string { return b.date }

func (b BuildInfo) Commit() string { return b.commit }

// Lines returns the startup banner studysync prints before loading config.
func (b BuildInfo) Lines() []string {
	return []string{
		"Build version: " + b.version,
		"Build date: " + b.date,
		"Build commit: " + b.commit,
	}
}

func orNotAvailable(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return BuildNotAvailable
	}
	return v
}
