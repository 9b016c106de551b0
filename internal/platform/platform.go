// Package platform maps the free-text OS and architecture signals found on the
// download pages onto small closed vocabularies.
//
// The two download pages do not agree on naming: the build archive calls macOS
// "darwin" while the stable page calls it "mac", and each page infers the
// architecture differently. The functions here keep those per-page schemes apart.
package platform

import "strings"

type OS string

const (
	Windows   OS = "windows"
	Darwin    OS = "darwin"
	Mac       OS = "mac"
	Linux     OS = "linux"
	UnknownOS OS = "unknown"
)

type Arch string

const (
	X86_64 Arch = "x86_64"
	X86    Arch = "x86"
	ARM64  Arch = "arm64"
	// UnknownArch is used whenever no rule matched, the record is still emitted.
	UnknownArch Arch = "unknown"
)

type substringRule[T any] struct {
	substr string
	value  T
}

func firstSubstring[T any](s string, rules []substringRule[T], fallback T) T {
	for _, rule := range rules {
		if strings.Contains(s, rule.substr) {
			return rule.value
		}
	}
	return fallback
}

var labelOSRules = []substringRule[OS]{
	{substr: "windows", value: Windows},
	{substr: "darwin", value: Darwin},
	{substr: "linux", value: Linux},
}

// OSFromLabel derives the OS from a build archive analytics label.
func OSFromLabel(label string) OS {
	return firstSubstring(strings.ToLower(label), labelOSRules, UnknownOS)
}

var classOSRules = []substringRule[OS]{
	{substr: "windows", value: Windows},
	{substr: "linux", value: Linux},
	{substr: "mac", value: Mac},
}

// OSFromClass derives the OS from the class attribute of a stable page platform item.
func OSFromClass(class string) OS {
	return firstSubstring(strings.ToLower(class), classOSRules, UnknownOS)
}

var platformLabelArch = map[string]Arch{
	"windows x64":         X86_64,
	"macos intel":         X86_64,
	"linux x64":           X86_64,
	"macos apple silicon": ARM64,
}

// ArchFromPlatformLabel derives the architecture from the text of a build archive
// "Architecture" label (e.g. "macOS Apple Silicon"). Only exact matches are accepted.
func ArchFromPlatformLabel(text string) Arch {
	arch, ok := platformLabelArch[strings.ToLower(strings.TrimSpace(text))]
	if !ok {
		return UnknownArch
	}
	return arch
}

var bitnessRules = []substringRule[Arch]{
	{substr: "64bit", value: X86_64},
	{substr: "32bit", value: X86},
}

// ArchFromBitness derives the architecture from the bitness marker of an analytics
// label, as used by the paired installer/archive build listing.
func ArchFromBitness(label string) Arch {
	return firstSubstring(strings.ToLower(label), bitnessRules, UnknownArch)
}

// StableArch derives the architecture on the stable page: only the literal
// "Apple Silicon" build is arm64, every other platform is x86_64.
func StableArch(buildText string) Arch {
	if buildText == "Apple Silicon" {
		return ARM64
	}
	return X86_64
}
