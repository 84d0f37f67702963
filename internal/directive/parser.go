// Package directive interprets the control marks an author may put in front of a message.
//
// A directive run starts with '.' and is followed by one or more marks:
//
//	'-'        skip the message
//	'+'        force a repost (repeatable, each '+' raises the level)
//	'~'        hide credits
//	'`a b c`'  replace the chat's buttons for this message (at most one)
//
// Anything else right after the dot means there is no directive at all.
package directive

import (
	"strings"
	"unicode/utf8"
)

const (
	Marker        = '.'
	SkipMark      = '-'
	ForceMark     = '+'
	AnonymousMark = '~'
	ButtonsQuote  = '`'

	// DefaultMaxLabelLen matches the default MAX_BUTTON_LEN setting.
	DefaultMaxLabelLen = 20
)

// Result is the outcome of parsing one message text.
type Result struct {
	// Matched is false when the text carries no directive run.
	Matched   bool
	Force     int
	Anonymous bool
	Skip      bool
	// Override is set when the run held a button list; Buttons may then be empty.
	Override bool
	Buttons  []string
	// HasText is false when stripping the run left nothing.
	HasText bool
	Text    string
}

// Parser holds the label policy applied to button lists.
type Parser struct {
	MaxLabelLen int
}

// New returns a Parser with the given label length limit.
func New(maxLabelLen int) Parser {
	if maxLabelLen <= 0 {
		maxLabelLen = DefaultMaxLabelLen
	}
	return Parser{MaxLabelLen: maxLabelLen}
}

// Parse parses a message text with the default label limit.
func Parse(text string) Result {
	return New(DefaultMaxLabelLen).Parse(text)
}

// Parse parses the text of a text message. A text message whose whole content is a
// directive run cannot be reposted, so it is reported as Skip.
func (p Parser) Parse(text string) Result {
	r := p.parse(text)
	if r.Matched && text != "" && !r.HasText {
		r.Skip = true
	}
	return r
}

// ParseCaption parses a media caption. Media stays repostable without a caption,
// so an emptied caption does not turn into Skip.
func (p Parser) ParseCaption(caption string) Result {
	return p.parse(caption)
}

func (p Parser) parse(text string) Result {
	marks := scan(text)
	if len(marks) == 0 {
		return Result{HasText: text != "", Text: text}
	}

	r := Result{Matched: true}
	consumed := 1
	for _, m := range marks {
		consumed += len(m)
		switch m[0] {
		case SkipMark:
			r.Skip = true
		case ForceMark:
			r.Force++
		case AnonymousMark:
			r.Anonymous = true
		case ButtonsQuote:
			r.Override = true
			r.Buttons = CleanLabels(strings.Fields(m[1:len(m)-1]), p.MaxLabelLen)
		}
	}

	if consumed < len(text) {
		r.HasText = true
		r.Text = text[consumed:]
	}
	return r
}

// scan returns the marks of the leading directive run, or nil when there is none.
func scan(text string) []string {
	if len(text) < 2 || text[0] != Marker {
		return nil
	}

	var marks []string
	quoted := false
	for i := 1; i < len(text); {
		switch text[i] {
		case SkipMark, ForceMark, AnonymousMark:
			marks = append(marks, text[i:i+1])
			i++
		case ButtonsQuote:
			if quoted {
				return marks
			}
			end := closingQuote(text[i+1:])
			if end < 0 {
				return marks
			}
			marks = append(marks, text[i:i+end+2])
			i += end + 2
			quoted = true
		default:
			return marks
		}
	}
	return marks
}

// closingQuote finds the backtick closing a button list on the same line.
func closingQuote(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ButtonsQuote:
			return i
		case '\n':
			return -1
		}
	}
	return -1
}

// CleanLabels removes duplicates while keeping the first occurrence and drops labels
// longer than maxLen runes. The result is never nil.
func CleanLabels(labels []string, maxLen int) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || utf8.RuneCountInString(l) > maxLen {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
