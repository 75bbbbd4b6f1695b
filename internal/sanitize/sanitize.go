// Package sanitize redacts findings that touch sensitive paths before they
// are ever rendered or posted to the forge.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
)

// CanonicalRemediationText replaces the message of any security-type
// finding against a sensitive path, so secret material is never echoed.
const CanonicalRemediationText = "This file matches a sensitive-path pattern. Review access controls and rotate any exposed credentials; the diff itself has been redacted from this report."

// sensitiveFragments mirrors the context builder's sensitive-path predicate.
var sensitiveFragments = []string{"secrets", "credentials", ".env", ".pem", ".key", ".p12"}

var idRSAPattern = regexp.MustCompile(`(^|/)id_rsa`)

// IsSensitivePath reports whether filename matches the sensitive-path
// predicate shared by the context builder and the sanitizer.
func IsSensitivePath(filename string) bool {
	lower := strings.ToLower(filename)
	for _, frag := range sensitiveFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return idRSAPattern.MatchString(lower)
}

// Findings returns a sanitized copy of findings; the input slice is not
// modified.
func Findings(findings []model.Finding) []model.Finding {
	out := make([]model.Finding, len(findings))
	for i, f := range findings {
		out[i] = f
		if !IsSensitivePath(f.File) {
			continue
		}
		out[i].SuggestedPatch = nil
		if f.Type == model.FindingSecurity {
			msg := CanonicalRemediationText
			out[i].Message = msg
		}
	}
	return out
}
