package models

import "time"

// MaxColumns is the platform ceiling for cells in one keyboard row.
const MaxColumns = 10

// Chat carries the display and posting policy of one group. Settings are owned by
// the settings surface; the core reads them and creates missing rows with defaults.
type Chat struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	Buttons        StringList `gorm:"type:text" json:"buttons"`
	ShowCredits    bool       `json:"show_credits"`
	AddPadding     bool       `json:"add_padding"`
	Columns        int        `json:"columns"`
	AllowedTypes   StringList `gorm:"type:text" json:"allowed_types"`
	AllowReactions bool       `json:"allow_reactions"`
	ForceEmojis    bool       `json:"force_emojis"`
	Repost         bool       `json:"repost"`
	CreatedAt      time.Time  `json:"-"`
	UpdatedAt      time.Time  `json:"-"`
}

// ChatDefaults holds the settings new chats start with.
type ChatDefaults struct {
	Buttons      []string
	Columns      int
	AllowedTypes []string
}

// NewChat returns a chat row populated with defaults
func NewChat(id string, d ChatDefaults) *Chat {
	return &Chat{
		ID:             id,
		Buttons:        append(StringList{}, d.Buttons...),
		ShowCredits:    true,
		AddPadding:     true,
		Columns:        ClampColumns(d.Columns),
		AllowedTypes:   append(StringList{}, d.AllowedTypes...),
		AllowReactions: true,
		ForceEmojis:    false,
		Repost:         true,
	}
}

// ClampColumns keeps a column setting within 1..MaxColumns
func ClampColumns(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxColumns {
		return MaxColumns
	}
	return n
}

// Allows reports whether messages of the given kind are reposted in this chat
func (c *Chat) Allows(kind MessageKind) bool {
	return kind != KindNone && c.AllowedTypes.Contains(string(kind))
}
