package timeline

import (
	"time"

	"timelined/pkg/models"
)

// DialogSnapshot flattens the engine state back into a dialog entry,
// the shape persisted and exchanged with the outside.
func (t *Timeline) DialogSnapshot() models.DialogEntry {
	entry := models.DialogEntry{UnreadCount: t.UnreadCountOrZero()}
	if v, ok := t.InboxReadTill(); ok {
		entry.ReadInboxMaxID = v
	}
	if v, ok := t.OutboxReadTill(); ok {
		entry.ReadOutboxMaxID = v
	}
	if m, ok := t.LastMessage(); ok && m != nil && m.ID.IsServer() {
		entry.TopMessageID = m.ID
	}
	if c, ok := t.UnreadMentionsCount(); ok {
		entry.UnreadMentionsCount = c
	}
	entry.Draft = t.CloudDraft().Clone()
	return entry
}

// Summary is the chat-list view of one conversation.
type Summary struct {
	Info                models.ConversationInfo `json:"info"`
	LastMessage         *models.Message         `json:"last_message,omitempty"`
	LastMessageKnown    bool                    `json:"last_message_known"`
	ChatListMessage     *models.Message         `json:"chat_list_message,omitempty"`
	ChatListKnown       bool                    `json:"chat_list_known"`
	UnreadCount         int                     `json:"unread_count"`
	UnreadKnown         bool                    `json:"unread_known"`
	ChatListUnreadCount int                     `json:"chat_list_unread_count"`
	MentionsCount       int                     `json:"mentions_count"`
	MentionsKnown       bool                    `json:"mentions_known"`
	LoadedAtTop         bool                    `json:"loaded_at_top"`
	LoadedAtBottom      bool                    `json:"loaded_at_bottom"`
	ActivityStatus      string                  `json:"activity_status,omitempty"`
	HasLocalDraft       bool                    `json:"has_local_draft"`
	HasCloudDraft       bool                    `json:"has_cloud_draft"`
	HasEditDraft        bool                    `json:"has_edit_draft"`
	Loaded              int                     `json:"loaded"`
	RecentAuthors       []int64                 `json:"recent_authors,omitempty"`
}

// Summary assembles the chat-list view, resolving the chat-list
// message first so unresolved summaries trigger their requests.
func (t *Timeline) Summary(now time.Time) Summary {
	t.RequestChatListMessage()
	s := Summary{
		Info:                t.info,
		ChatListUnreadCount: t.ChatListUnreadCount(),
		LoadedAtTop:         t.loadedAtTop,
		LoadedAtBottom:      t.loadedAtBottom,
		ActivityStatus:      t.SendActionStatus(now),
		HasLocalDraft:       t.drafts.local != nil,
		HasCloudDraft:       t.drafts.cloud != nil,
		HasEditDraft:        t.drafts.edit != nil,
		Loaded:              t.Size(),
		RecentAuthors:       t.RecentAuthors(),
	}
	s.LastMessage, s.LastMessageKnown = t.LastMessage()
	s.ChatListMessage, s.ChatListKnown = t.ChatListMessage()
	s.UnreadCount, s.UnreadKnown = t.UnreadCount()
	s.MentionsCount, s.MentionsKnown = t.UnreadMentionsCount()
	return s
}
