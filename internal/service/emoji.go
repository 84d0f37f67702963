package service

import (
	"strings"

	"reactor/backend/internal/directive"

	"github.com/kyokomi/emoji/v2"
)

const variationSelector = "\ufe0f"

var knownEmoji = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, e := range emoji.CodeMap() {
		if e = normalizeEmoji(e); e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}()

func normalizeEmoji(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), variationSelector, "")
}

// IsEmoji reports whether s is exactly one known emoji
func IsEmoji(s string) bool {
	s = normalizeEmoji(s)
	if s == "" {
		return false
	}
	_, ok := knownEmoji[s]
	return ok
}

// CleanEmojiLabels dedupes labels and drops the ones longer than maxLen. It
// reports false when nothing is left or any remaining label is not an emoji.
func CleanEmojiLabels(labels []string, maxLen int) ([]string, bool) {
	cleaned := directive.CleanLabels(labels, maxLen)
	if len(cleaned) == 0 {
		return nil, false
	}
	for _, l := range cleaned {
		if !IsEmoji(l) {
			return nil, false
		}
	}
	return cleaned, true
}
