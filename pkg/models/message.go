package models

// MsgID is a message identifier. Server-confirmed messages carry
// positive ids, monotonic within a conversation. Locally-composed
// messages that the server has not confirmed yet carry ids <= 0 and
// never participate in read-cursor math.
type MsgID int64

// IsServer reports whether the id belongs to a server-confirmed message.
func (id MsgID) IsServer() bool { return id > 0 }

// ServerMaxID is an exclusive upper bound on server message ids, used
// as the open end of "loaded through the bottom" ranges.
const ServerMaxID MsgID = 1 << 30

// ContentKind discriminates the closed set of message payload kinds.
type ContentKind string

const (
	KindText    ContentKind = "text"
	KindService ContentKind = "service"
	KindMedia   ContentKind = "media"
)

// ServiceAction names the service-message actions the engine reacts to.
type ServiceAction string

const (
	ActionNone         ServiceAction = ""
	ActionGroupCreated ServiceAction = "group_created"
	// ActionMigrateTo marks the legacy-group side of a supergroup
	// migration; ActionMigrateFrom marks the supergroup side.
	ActionMigrateTo    ServiceAction = "migrate_to"
	ActionMigrateFrom  ServiceAction = "migrate_from"
	ActionUserJoined   ServiceAction = "user_joined"
	ActionHistoryClear ServiceAction = "history_clear"
)

// MediaType classifies shared media for the media index.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
	MediaFile  MediaType = "file"
	MediaVoice MediaType = "voice"
	MediaLink  MediaType = "link"
)

// Media describes an attached media payload. Ref is an opaque handle
// into whatever blob storage the surrounding system uses.
type Media struct {
	Type MediaType `json:"type"`
	Ref  string    `json:"ref,omitempty"`
}

// Content is the tagged payload variant of a message.
type Content struct {
	Kind   ContentKind   `json:"kind"`
	Text   string        `json:"text,omitempty"`
	Action ServiceAction `json:"action,omitempty"`
	Media  *Media        `json:"media,omitempty"`
}

// Message is one timeline entry as delivered by the transport. Identity
// (ID) is immutable; content may be edited in place.
type Message struct {
	ID       MsgID   `json:"id"`
	ConvID   int64   `json:"conv_id,omitempty"`
	Date     int64   `json:"date"`
	AuthorID int64   `json:"author_id,omitempty"`
	Out      bool    `json:"out,omitempty"`
	Unread   bool    `json:"unread,omitempty"`
	Mention  bool    `json:"mention,omitempty"`
	Content  Content `json:"content"`
}

// IsService reports whether the message is a service notice.
func (m *Message) IsService() bool { return m.Content.Kind == KindService }

// IsGroupMigrate reports whether the message is a migration marker on
// either side of a legacy-group to supergroup conversion.
func (m *Message) IsGroupMigrate() bool {
	return m.Content.Kind == KindService &&
		(m.Content.Action == ActionMigrateTo || m.Content.Action == ActionMigrateFrom)
}

// IsGroupEssential reports service notices that pin the true start of a
// group conversation (creation and migration markers).
func (m *Message) IsGroupEssential() bool {
	if m.Content.Kind != KindService {
		return false
	}
	switch m.Content.Action {
	case ActionGroupCreated, ActionMigrateTo, ActionMigrateFrom:
		return true
	}
	return false
}

// HasMedia reports whether the message carries an indexable media payload.
func (m *Message) HasMedia() bool {
	return m.Content.Kind == KindMedia && m.Content.Media != nil
}
