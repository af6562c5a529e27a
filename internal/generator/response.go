package generator

import (
	"regexp"
	"strings"
)

// NotPossibleSentinel is what the model replies when it cannot produce tests.
const NotPossibleSentinel = "not possible00192"

const codeFence = "```"

var fenceLanguageRe = regexp.MustCompile(`^\w+\n`)

// CleanResponse trims the reply and strips one leading and one trailing code fence.
// A language tag directly after the opening fence is dropped too.
func CleanResponse(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, codeFence) {
		text = text[len(codeFence):]
		text = fenceLanguageRe.ReplaceAllString(text, "")
	}
	if strings.HasSuffix(text, codeFence) {
		text = text[:len(text)-len(codeFence)]
	}
	return text
}

// IsNotPossible reports whether the cleaned reply carries the sentinel.
func IsNotPossible(text string) bool {
	return strings.Contains(text, NotPossibleSentinel)
}
