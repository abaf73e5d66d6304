package forecast

import (
	"regexp"
	"strconv"
	"strings"
)

// Horizon bounds.
const (
	DefaultHorizon = 3
	MaxHorizon     = 60
)

var horizonPattern = regexp.MustCompile(`(\d+)\s*(month|months)`)

// HorizonFromPrompt reads the first "<N> month(s)" phrase of prompt. Missing
// or non-positive values fall back to def; values above MaxHorizon are
// clamped.
func HorizonFromPrompt(prompt string, def int) int {
	m := horizonPattern.FindStringSubmatch(strings.ToLower(prompt))
	if m == nil {
		return def
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return def
	}
	return min(n, MaxHorizon)
}
