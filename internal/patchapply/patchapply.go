// Package patchapply applies a unified diff against file contents with
// local search tolerance, for cmd/reviewctl's local suggested-patch
// preview only. The worker dispatcher never applies patches itself — it
// only ever surfaces suggested_patch strings, per spec Non-goals.
package patchapply

import (
	"fmt"
	"regexp"
	"strings"
)

// Error reports a patch that could not be applied.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "patch apply failed: " + e.Reason }

var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

const searchWindow = 8

// stripFence removes a leading/trailing ```diff fence some LLMs wrap
// suggested patches in.
func stripFence(patch string) string {
	trimmed := strings.TrimSpace(patch)
	trimmed = strings.TrimPrefix(trimmed, "```diff")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

// Apply applies patch against the lines of original, tolerating up to
// searchWindow lines of local context drift when locating each hunk.
func Apply(original string, patch string) (string, error) {
	patch = stripFence(patch)
	srcLines := strings.Split(original, "\n")
	patchLines := strings.Split(patch, "\n")

	var out []string
	cursor := 0

	i := 0
	for i < len(patchLines) {
		m := hunkHeaderRE.FindStringSubmatch(patchLines[i])
		if m == nil {
			i++
			continue
		}
		i++

		var hunkBody []string
		for i < len(patchLines) && !hunkHeaderRE.MatchString(patchLines[i]) {
			hunkBody = append(hunkBody, patchLines[i])
			i++
		}

		anchor, ok := locateAnchor(srcLines, cursor, hunkBody)
		if !ok {
			return "", &Error{Reason: fmt.Sprintf("could not locate hunk context near line %d", cursor+1)}
		}

		out = append(out, srcLines[cursor:anchor]...)
		cursor = anchor

		for _, hl := range hunkBody {
			switch {
			case strings.HasPrefix(hl, "+"):
				out = append(out, hl[1:])
			case strings.HasPrefix(hl, "-"):
				cursor++
			case strings.HasPrefix(hl, "\\"):
				// no-newline marker, ignore.
			default:
				out = append(out, strings.TrimPrefix(hl, " "))
				cursor++
			}
		}
	}

	out = append(out, srcLines[cursor:]...)
	return strings.Join(out, "\n"), nil
}

// locateAnchor finds the index in srcLines, searching within ±searchWindow
// of from, where the hunk's first context or deletion line matches.
func locateAnchor(srcLines []string, from int, hunkBody []string) (int, bool) {
	var contextLines []string
	for _, hl := range hunkBody {
		if strings.HasPrefix(hl, "+") {
			continue
		}
		contextLines = append(contextLines, strings.TrimPrefix(strings.TrimPrefix(hl, "-"), " "))
		break
	}
	if len(contextLines) == 0 {
		return from, true
	}

	lo := from - searchWindow
	if lo < 0 {
		lo = 0
	}
	hi := from + searchWindow + 1
	if hi > len(srcLines) {
		hi = len(srcLines)
	}

	for idx := lo; idx < hi; idx++ {
		if srcLines[idx] == contextLines[0] {
			return idx, true
		}
	}
	return 0, false
}
