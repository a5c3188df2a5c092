package groupme

// User is the authenticated GroupMe user.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Group is a group the user belongs to.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Bot is a bot registration owned by the access token.
type Bot struct {
	BotID       string `json:"bot_id"`
	Name        string `json:"name"`
	GroupID     string `json:"group_id"`
	CallbackURL string `json:"callback_url"`
}

// Message is a GroupMe message, both as fetched from group history and as
// delivered to the callback endpoint. Fields beyond SenderType and Text are
// platform metadata carried through untouched.
type Message struct {
	ID          string       `json:"id"`
	SourceGUID  string       `json:"source_guid"`
	GroupID     string       `json:"group_id"`
	SenderID    string       `json:"sender_id"`
	SenderType  string       `json:"sender_type"`
	UserID      string       `json:"user_id"`
	Name        string       `json:"name"`
	AvatarURL   string       `json:"avatar_url"`
	Text        string       `json:"text"`
	System      bool         `json:"system"`
	CreatedAt   int64        `json:"created_at"`
	Attachments []Attachment `json:"attachments"`
}

// FromBot reports whether the message was produced by a bot. Such messages
// must never trigger a response, or the bot would answer itself forever.
func (m *Message) FromBot() bool {
	return m.SenderType == "bot"
}

// Attachment is a message attachment; the bot only ever produces image kinds.
type Attachment struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}
