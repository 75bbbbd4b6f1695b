// Package tokenest provides advisory prompt-token estimates. No other
// package in the module imports it; it does not reject or clip content —
// the byte-based budgets in contextbuilder are what limit prompt size.
package tokenest

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
	errInit error
)

func encoding() (*tiktoken.Tiktoken, error) {
	once.Do(func() {
		enc, errInit = tiktoken.GetEncoding(encodingName)
	})
	return enc, errInit
}

// Estimate returns an approximate token count for text. On any tokenizer
// initialization error it falls back to a conservative 4-bytes-per-token
// heuristic rather than failing the caller.
func Estimate(text string) int {
	e, err := encoding()
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(e.Encode(text, nil, nil))
}

// EstimateFiles sums Estimate across a set of file patches, useful for
// reporting a cluster's approximate prompt-token footprint.
func EstimateFiles(patches []string) int {
	total := 0
	for _, p := range patches {
		total += Estimate(p)
	}
	return total
}
