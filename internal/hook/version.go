// SPDX-License-Identifier: MPL-2.0

package hook

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

type (
	// VersionRequest is a parsed language_version constraint. The zero
	// request ("", "default") accepts any version the language deems
	// appropriate.
	VersionRequest struct {
		raw string
		op  versionOp
		// version is normalized without a "v" prefix. For prefix
		// matching, "3.11" matches any 3.11.x.
		version string
	}

	versionOp int
)

const (
	opAny versionOp = iota
	opPrefix
	opGE
	opGT
	opLE
	opLT
	opEQ
)

// ParseVersionRequest parses "", "default", an exact or partial version
// ("3.11", "18.2.0"), or a relational range (">=3.9", "<20").
func ParseVersionRequest(raw string) (VersionRequest, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "default" {
		return VersionRequest{raw: raw, op: opAny}, nil
	}

	op := opPrefix
	switch {
	case strings.HasPrefix(s, ">="):
		op, s = opGE, s[2:]
	case strings.HasPrefix(s, "<="):
		op, s = opLE, s[2:]
	case strings.HasPrefix(s, ">"):
		op, s = opGT, s[1:]
	case strings.HasPrefix(s, "<"):
		op, s = opLT, s[1:]
	case strings.HasPrefix(s, "=="):
		op, s = opEQ, s[2:]
	case strings.HasPrefix(s, "="):
		op, s = opEQ, s[1:]
	}

	s = strings.TrimSpace(strings.TrimPrefix(s, "v"))
	if !semver.IsValid(pad(s)) {
		return VersionRequest{}, fmt.Errorf("invalid version request %q", raw)
	}

	return VersionRequest{raw: raw, op: op, version: s}, nil
}

// IsAny reports whether the request places no constraint.
func (r VersionRequest) IsAny() bool { return r.op == opAny }

// Prefix returns the requested version fragment for exact or partial
// requests ("3.11" for "3.11"), and "" for any other kind.
func (r VersionRequest) Prefix() string {
	if r.op == opPrefix {
		return r.version
	}
	return ""
}

// String returns the original request text.
func (r VersionRequest) String() string {
	if r.op == opAny {
		return "default"
	}
	return r.raw
}

// Matches reports whether a concrete version satisfies the request.
// Partial requests match by prefix: "3.11" matches "3.11.9" but not
// "3.1" or "3.110".
func (r VersionRequest) Matches(concrete string) bool {
	c := pad(strings.TrimPrefix(concrete, "v"))
	if !semver.IsValid(c) {
		return false
	}
	switch r.op {
	case opAny:
		return true
	case opPrefix:
		want := "v" + r.version
		switch strings.Count(r.version, ".") {
		case 0:
			return semver.Major(c) == want
		case 1:
			return semver.MajorMinor(c) == want
		default:
			return semver.Compare(c, want) == 0
		}
	case opGE:
		return semver.Compare(c, pad(r.version)) >= 0
	case opGT:
		return semver.Compare(c, pad(r.version)) > 0
	case opLE:
		return semver.Compare(c, pad(r.version)) <= 0
	case opLT:
		return semver.Compare(c, pad(r.version)) < 0
	case opEQ:
		return semver.Compare(c, pad(r.version)) == 0
	}
	return false
}

// pad turns a dotted version fragment into canonical semver form with a
// leading "v", as golang.org/x/mod/semver requires.
func pad(s string) string {
	return "v" + s
}
