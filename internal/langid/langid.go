// Package langid tags article text as English or Amharic. The detector is an
// explicitly constructed value injected where needed; there is no shared
// initialization flag.
package langid

import "unicode"

// Detector classifies text between a small fixed set of languages. The
// sources in the registry publish in English and Amharic, and those are
// separable by script alone, so classification is a ratio test over the
// Ethiopic range.
type Detector struct {
	// minimum share of letters that must be Ethiopic to tag "am"
	ethiopicThreshold float64
}

// New returns a detector for the en/am source set.
func New() *Detector {
	return &Detector{ethiopicThreshold: 0.3}
}

// Detect returns "am", "en" or "unknown" (empty or letterless input).
func (d *Detector) Detect(text string) string {
	letters, ethiopic := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Ethiopic, r) {
			ethiopic++
		}
	}
	if letters == 0 {
		return "unknown"
	}
	if float64(ethiopic)/float64(letters) >= d.ethiopicThreshold {
		return "am"
	}
	return "en"
}
