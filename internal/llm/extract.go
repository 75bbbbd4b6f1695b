package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrParse is returned when no valid JSON object could be extracted from
// the raw model output. The dispatcher treats this as a ValidationError and
// renders a neutral verdict, never a failure caused by our own bug.
var ErrParse = errors.New("could not extract a JSON object from model output")

// ExtractJSON finds the first `{` and last `}` in raw and attempts to parse
// the substring between them, tolerating incidental prose wrapping the
// object. The fast path tries the whole trimmed string first.
func ExtractJSON(raw string, out interface{}) error {
	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end < start {
		return ErrParse
	}

	candidate := trimmed[start : end+1]
	if err := json.Unmarshal([]byte(candidate), out); err != nil {
		return ErrParse
	}
	return nil
}
