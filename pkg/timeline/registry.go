package timeline

import (
	"fmt"
	"sync"
	"time"

	"timelined/pkg/logger"
	"timelined/pkg/models"
)

// Clock abstracts time for expiry and draft stamping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// MediaIndex receives attached message spans so shared media can be
// queried without walking blocks.
type MediaIndex interface {
	OnMessagesAdded(convID int64, msgs []models.Message, loaded IDRange)
	OnBottomInvalidated(convID int64)
}

// Notifier is told about incoming unread messages.
type Notifier interface {
	NotifyUnread(convID int64, msg models.Message)
}

// Transport lets the engine hint that server state is missing. Both
// calls are fire-and-forget; results come back through the normal
// ingestion operations.
type Transport interface {
	RequestDialogEntry(convID int64)
	RequestOlderMessages(convID int64, beforeID models.MsgID, limit int)
}

type nopMedia struct{}

func (nopMedia) OnMessagesAdded(int64, []models.Message, IDRange) {}
func (nopMedia) OnBottomInvalidated(int64)                        {}

type nopNotifier struct{}

func (nopNotifier) NotifyUnread(int64, models.Message) {}

type nopTransport struct{}

func (nopTransport) RequestDialogEntry(int64)                      {}
func (nopTransport) RequestOlderMessages(int64, models.MsgID, int) {}

// Options configures a Registry. Zero values pick working defaults.
type Options struct {
	Clock     Clock
	Media     MediaIndex
	Notifier  Notifier
	Transport Transport
	// UserName resolves a user id to a display name for activity
	// status lines.
	UserName func(int64) string
}

// Registry owns every conversation timeline and serializes access to
// them. Timelines themselves are single-threaded; all entry points go
// through With or Snapshot-style methods holding the registry lock.
type Registry struct {
	mu            sync.Mutex
	clock         Clock
	media         MediaIndex
	notifier      Notifier
	transport     Transport
	userName      func(int64) string
	conversations map[int64]*Timeline
	nextLocal     models.MsgID
}

// NewRegistry builds an empty registry.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		clock:         opts.Clock,
		media:         opts.Media,
		notifier:      opts.Notifier,
		transport:     opts.Transport,
		userName:      opts.UserName,
		conversations: make(map[int64]*Timeline),
		nextLocal:     -1,
	}
	if r.clock == nil {
		r.clock = systemClock{}
	}
	if r.media == nil {
		r.media = nopMedia{}
	}
	if r.notifier == nil {
		r.notifier = nopNotifier{}
	}
	if r.transport == nil {
		r.transport = nopTransport{}
	}
	if r.userName == nil {
		r.userName = func(id int64) string { return fmt.Sprintf("user%d", id) }
	}
	return r
}

// nextLocalID hands out ids for locally-synthesized messages. They are
// negative and never collide with server ids.
func (r *Registry) nextLocalID() models.MsgID {
	id := r.nextLocal
	r.nextLocal--
	return id
}

// peek returns a conversation without creating it; callers already
// hold the lock.
func (r *Registry) peek(convID int64) *Timeline {
	return r.conversations[convID]
}

// get returns the conversation, creating it on first touch; callers
// already hold the lock.
func (r *Registry) get(info models.ConversationInfo) *Timeline {
	if t := r.conversations[info.ID]; t != nil {
		return t
	}
	t := newTimeline(r, info)
	r.conversations[info.ID] = t
	logger.Debug("conversation_created", "conv", info.ID, "kind", string(info.Kind))
	return t
}

// ErrNotFound is returned by operations addressed at a conversation
// the registry has never seen.
var ErrNotFound = fmt.Errorf("conversation not found")

// Upsert creates or updates a conversation and runs fn on it.
func (r *Registry) Upsert(info models.ConversationInfo, fn func(*Timeline)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.conversations[info.ID]
	if t == nil {
		t = r.get(info)
	} else if info.Kind != "" {
		t.UpdateInfo(info)
	}
	if fn != nil {
		fn(t)
	}
}

// With runs fn on an existing conversation under the registry lock.
func (r *Registry) With(convID int64, fn func(*Timeline) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.conversations[convID]
	if t == nil {
		return ErrNotFound
	}
	return fn(t)
}

// Has reports whether the conversation exists.
func (r *Registry) Has(convID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conversations[convID] != nil
}

// Remove deletes a conversation from the registry.
func (r *Registry) Remove(convID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[convID]; !ok {
		return false
	}
	delete(r.conversations, convID)
	return true
}

// IDs returns every registered conversation id.
func (r *Registry) IDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, 0, len(r.conversations))
	for id := range r.conversations {
		out = append(out, id)
	}
	return out
}

// Len returns the number of registered conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conversations)
}

// LinkMigration records that the legacy group continues as the
// supergroup: both sides learn the link, and an unsent composer draft
// moves over so typing survives the switch.
func (r *Registry) LinkMigration(groupID, superID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	group := r.conversations[groupID]
	if group == nil {
		return ErrNotFound
	}
	super := r.conversations[superID]
	if super == nil {
		super = r.get(models.ConversationInfo{ID: superID, Kind: models.ConvSupergroup})
	}
	ginfo := group.Info()
	ginfo.MigratedToID = superID
	group.UpdateInfo(ginfo)
	sinfo := super.Info()
	sinfo.MigratedFromID = groupID
	super.UpdateInfo(sinfo)
	super.TakeLocalDraft(group)
	super.RefreshChatListMessage()
	logger.Info("migration_linked", "group", groupID, "supergroup", superID)
	return nil
}

// SweepSendActions expires peer activity across every conversation and
// returns how many still have any.
func (r *Registry) SweepSendActions(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := 0
	for _, t := range r.conversations {
		if t.UpdateSendActions(now) {
			active++
		}
	}
	return active
}
