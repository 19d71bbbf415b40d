package models

// DialogEntry is the server's summary of one conversation as returned
// by a dialog fetch: counters, read boundaries, the top message id and
// an optional cloud draft. Fields the server did not report keep their
// zero value and are skipped by the engine where "unknown" matters.
type DialogEntry struct {
	UnreadCount         int    `json:"unread_count"`
	ReadInboxMaxID      MsgID  `json:"read_inbox_max_id"`
	ReadOutboxMaxID     MsgID  `json:"read_outbox_max_id"`
	TopMessageID        MsgID  `json:"top_message_id,omitempty"`
	UnreadMentionsCount int    `json:"unread_mentions_count,omitempty"`
	Draft               *Draft `json:"draft,omitempty"`
}

// SendActionKind names the ephemeral per-user activities a conversation
// can display. Cancel is not a kind: it clears whatever is active.
type SendActionKind string

const (
	SendActionTyping         SendActionKind = "typing"
	SendActionRecordVideo    SendActionKind = "record_video"
	SendActionUploadVideo    SendActionKind = "upload_video"
	SendActionRecordVoice    SendActionKind = "record_voice"
	SendActionUploadVoice    SendActionKind = "upload_voice"
	SendActionUploadPhoto    SendActionKind = "upload_photo"
	SendActionUploadFile     SendActionKind = "upload_file"
	SendActionChooseLocation SendActionKind = "choose_location"
	SendActionChooseContact  SendActionKind = "choose_contact"
	SendActionPlayGame       SendActionKind = "play_game"
)

// ConversationKind distinguishes the peer types whose timelines behave
// differently around migration and joined notices.
type ConversationKind string

const (
	ConvUser       ConversationKind = "user"
	ConvGroup      ConversationKind = "group"
	ConvSupergroup ConversationKind = "supergroup"
)

// ConversationInfo is the per-conversation metadata the engine needs
// beyond the message stream itself.
type ConversationInfo struct {
	ID         int64            `json:"id"`
	Kind       ConversationKind `json:"kind"`
	Title      string           `json:"title,omitempty"`
	SelfID     int64            `json:"self_id,omitempty"`
	InviterID  int64            `json:"inviter_id,omitempty"`
	InviteDate int64            `json:"invite_date,omitempty"`
	// MigratedFromID / MigratedToID link a supergroup to its legacy
	// group and vice versa once a migration is known.
	MigratedFromID int64 `json:"migrated_from_id,omitempty"`
	MigratedToID   int64 `json:"migrated_to_id,omitempty"`
}
