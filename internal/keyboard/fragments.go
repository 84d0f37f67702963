package keyboard

// Fragment is an independently produced part of the keyboard.
type Fragment interface {
	Grid() Grid
}

// CreditsFragment attributes a post to its author and, for forwards, its origin.
type CreditsFragment struct {
	AuthorName     string
	AuthorUsername string

	ForwardName     string
	ForwardUsername string

	ForwardChatName      string
	ForwardChatUsername  string
	ForwardChatMessageID string
}

// Grid renders the credits row, or nil when there is no author to credit
func (f *CreditsFragment) Grid() Grid {
	if f == nil || f.AuthorName == "" {
		return nil
	}

	author := Cell{Text: "by " + f.AuthorName}
	if f.AuthorUsername != "" {
		author.URL = profileURL(f.AuthorUsername)
	} else {
		author.Action = InertAction
	}

	var extra Row
	if f.ForwardName != "" && f.ForwardUsername != f.AuthorUsername {
		if f.ForwardUsername != "" {
			extra = append(extra, Cell{
				Text: "from " + f.ForwardName,
				URL:  profileURL(f.ForwardUsername),
			})
		} else {
			author.Text += ", from " + f.ForwardName
		}
	}

	if f.ForwardChatUsername != "" {
		extra = append(extra, Cell{
			Text: "from " + f.ForwardChatName,
			URL:  profileURL(f.ForwardChatUsername) + "/" + f.ForwardChatMessageID,
		})
	}

	return Grid{append(Row{author}, extra...)}
}

// VoteFragment is the single link cell that lets people react to an inline post
// through a private dialog with the bot.
type VoteFragment struct {
	BotUsername string
	Token       string
}

// VoteText is the label of the vote link cell.
const VoteText = "add reaction"

// Grid renders the vote row, or nil when there is nothing to link to
func (f *VoteFragment) Grid() Grid {
	if f == nil || f.Token == "" || f.BotUsername == "" {
		return nil
	}
	return Grid{{Cell{
		Text: VoteText,
		URL:  profileURL(f.BotUsername) + "?start=" + f.Token,
	}}}
}

// PublishFragment is the cell that hands a prepared post over to inline mode,
// where the user picks the chat or channel to publish it in.
type PublishFragment struct {
	DraftID string
}

// PublishText is the label of the publish cell.
const PublishText = "publish"

// Grid renders the publish row, or nil without a draft
func (f *PublishFragment) Grid() Grid {
	if f == nil || f.DraftID == "" {
		return nil
	}
	return Grid{{Cell{Text: PublishText, SwitchInline: f.DraftID}}}
}

// ReactionsFragment holds the reaction counters of one message.
type ReactionsFragment struct {
	Items   []Item
	Options Options
}

// Grid renders the reaction cells
func (f *ReactionsFragment) Grid() Grid {
	if f == nil {
		return nil
	}
	return Render(f.Items, f.Options)
}

func profileURL(username string) string {
	return "https://t.me/" + username
}
