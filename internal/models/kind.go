package models

// MessageKind is the closed set of message kinds the posting policy reasons about.
type MessageKind string

const (
	KindNone      MessageKind = ""
	KindAlbum     MessageKind = "album"
	KindText      MessageKind = "text"
	KindPhoto     MessageKind = "photo"
	KindVideo     MessageKind = "video"
	KindAnimation MessageKind = "animation"
	KindDocument  MessageKind = "document"
	KindAudio     MessageKind = "audio"
	KindSticker   MessageKind = "sticker"
	KindVoice     MessageKind = "voice"
	KindVideoNote MessageKind = "video_note"
	KindContact   MessageKind = "contact"
	KindLocation  MessageKind = "location"
	KindVenue     MessageKind = "venue"
	KindForward   MessageKind = "forward"
	KindLink      MessageKind = "link"
)

// MessageKinds lists every kind in classification priority order.
var MessageKinds = []MessageKind{
	KindAlbum,
	KindText,
	KindPhoto,
	KindVideo,
	KindAnimation,
	KindDocument,
	KindAudio,
	KindSticker,
	KindVoice,
	KindVideoNote,
	KindContact,
	KindLocation,
	KindVenue,
	KindForward,
	KindLink,
}

// ParseMessageKind maps a settings string to a kind, reporting unknown values
func ParseMessageKind(s string) (MessageKind, bool) {
	for _, k := range MessageKinds {
		if string(k) == s {
			return k, true
		}
	}
	return KindNone, false
}

// Repostable reports whether the bot can send a copy of messages of this kind
func (k MessageKind) Repostable() bool {
	switch k {
	case KindText, KindLink, KindPhoto, KindVideo, KindAnimation, KindDocument,
		KindAudio, KindVoice, KindVideoNote, KindSticker:
		return true
	}
	return false
}

// Publishable reports whether a private message of this kind can be offered as
// an inline result and published with reactions
func (k MessageKind) Publishable() bool {
	switch k {
	case KindText, KindLink, KindPhoto, KindVideo, KindAnimation:
		return true
	}
	return false
}
