// Package identity builds the canonical key a reactable message is stored under.
//
// A message can be addressed by a (chat, message) pair, by a bare inline-message
// token, or by a key produced earlier by Resolve. All three collapse to one string.
package identity

import "strings"

// Separator joins chat and message ids. It never occurs in platform ids.
const Separator = "~"

// Resolve returns the canonical key for the given addressing mode.
func Resolve(chatID, messageID, inlineID string) string {
	if inlineID != "" {
		return inlineID
	}
	if messageID == "" {
		return chatID
	}
	if strings.Contains(messageID, Separator) {
		return messageID
	}
	return chatID + Separator + messageID
}

// Split reverses the composite form. Inline tokens come back as a single part.
func Split(key string) []string {
	return strings.Split(key, Separator)
}

// IsInline reports whether key is an inline-message token rather than a chat composite.
func IsInline(key string) bool {
	return key != "" && !strings.Contains(key, Separator)
}

// ChatID extracts the chat part of a composite key, or "" for inline tokens.
func ChatID(key string) string {
	parts := Split(key)
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}
