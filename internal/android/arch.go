// Package android defines the CPU architecture tags a build can target.
package android

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/droidgate/droidgate/internal/errors"
)

// Arch identifies a target CPU architecture.
type Arch string

const (
	// ArchArmeabi is the legacy 32-bit ARM variant. The platform dropped
	// support for it at API level 21; CheckTargetAPI enforces the cutoff.
	ArchArmeabi Arch = "armeabi"
	// ArchArmeabiV7a is the modern 32-bit ARM variant.
	ArchArmeabiV7a Arch = "armeabi-v7a"
	// ArchArm64V8a is 64-bit ARM.
	ArchArm64V8a Arch = "arm64-v8a"
	// ArchX86 is 32-bit x86 (emulators, some tablets).
	ArchX86 Arch = "x86"
	// ArchX8664 is 64-bit x86.
	ArchX8664 Arch = "x86_64"
)

// Supported returns every recognized architecture tag, legacy included.
func Supported() []Arch {
	return []Arch{ArchArmeabi, ArchArmeabiV7a, ArchArm64V8a, ArchX86, ArchX8664}
}

// String returns the tag as used on the command line and in build tooling.
func (a Arch) String() string {
	return string(a)
}

// IsLegacyArm reports whether the tag is the deprecated armeabi variant.
func (a Arch) IsLegacyArm() bool {
	return a == ArchArmeabi
}

// maxSuggestDistance bounds how far a typo may be from a known tag
// before we stop suggesting a correction.
const maxSuggestDistance = 3

// Parse matches s (case-insensitive) against the supported tags.
// Unknown tags produce an error that names the closest known tag when
// the input looks like a typo.
func Parse(s string) (Arch, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	if needle == "" {
		return "", errors.New(errors.ErrCodeUnknownArch, "architecture tag is empty", nil).
			WithInstructions(fmt.Sprintf("Supported architectures: %s.", joinSupported()))
	}

	for _, a := range Supported() {
		if needle == string(a) {
			return a, nil
		}
	}

	err := errors.New(errors.ErrCodeUnknownArch,
		fmt.Sprintf("unknown architecture %q", s), nil)

	if closest, dist := closestArch(needle); dist <= maxSuggestDistance {
		return "", err.WithInstructions(fmt.Sprintf("Did you mean --arch=%s? Supported architectures: %s.", closest, joinSupported()))
	}
	return "", err.WithInstructions(fmt.Sprintf("Supported architectures: %s.", joinSupported()))
}

// closestArch returns the supported tag with the smallest edit distance to s.
func closestArch(s string) (Arch, int) {
	var (
		best     Arch
		bestDist = -1
	)
	for _, a := range Supported() {
		d := levenshtein.ComputeDistance(s, string(a))
		if bestDist < 0 || d < bestDist {
			best, bestDist = a, d
		}
	}
	return best, bestDist
}

func joinSupported() string {
	tags := make([]string, 0, len(Supported()))
	for _, a := range Supported() {
		tags = append(tags, string(a))
	}
	return strings.Join(tags, ", ")
}
