package timeline

import "timelined/pkg/models"

// skipCloudDraftWindow is how long, in seconds, cloud draft updates are
// ignored after a send or an explicit draft save. Within that window a
// cloud echo would resurrect text the user already dispatched.
const skipCloudDraftWindow = 3

// draftState holds the three per-conversation draft slots plus the
// bookkeeping that suppresses stale cloud echoes.
type draftState struct {
	local *models.Draft
	cloud *models.Draft
	edit  *models.Draft

	lastSentText    string
	lastSentTextSet bool
	lastSentTime    int64
}

// LocalDraft returns the composer's draft, nil when absent.
func (t *Timeline) LocalDraft() *models.Draft { return t.drafts.local }

// CloudDraft returns the last server-reported draft, nil when absent.
func (t *Timeline) CloudDraft() *models.Draft { return t.drafts.cloud }

// EditDraft returns the in-progress message edit, nil when absent.
func (t *Timeline) EditDraft() *models.Draft { return t.drafts.edit }

// SetLocalDraft replaces the composer's draft.
func (t *Timeline) SetLocalDraft(d *models.Draft) { t.drafts.local = d }

// SetCloudDraft replaces the server-reported draft.
func (t *Timeline) SetCloudDraft(d *models.Draft) { t.drafts.cloud = d }

// SetEditDraft replaces the edit draft.
func (t *Timeline) SetEditDraft(d *models.Draft) { t.drafts.edit = d }

// ClearLocalDraft drops the composer's draft.
func (t *Timeline) ClearLocalDraft() { t.drafts.local = nil }

// ClearCloudDraft drops the server-reported draft.
func (t *Timeline) ClearCloudDraft() { t.drafts.cloud = nil }

// ClearEditDraft drops the edit draft.
func (t *Timeline) ClearEditDraft() { t.drafts.edit = nil }

// CreateCloudDraft records what is being saved to the server. An empty
// source stores a dated clear marker so a later fetch cannot revive an
// older draft.
func (t *Timeline) CreateCloudDraft(from *models.Draft) *models.Draft {
	if from.IsEmpty() {
		t.drafts.cloud = &models.Draft{Date: 0}
	} else {
		c := from.Clone()
		c.Date = t.now()
		t.drafts.cloud = c
	}
	return t.drafts.cloud
}

// CreateLocalDraftFromCloud promotes the cloud draft into the composer
// slot unless a fresher local draft exists. The reply reference stays
// in the cloud slot, the composer starts without one.
func (t *Timeline) CreateLocalDraftFromCloud() {
	cloud := t.drafts.cloud
	if cloud.IsEmpty() || cloud.Date == 0 {
		return
	}
	local := t.drafts.local
	if local.IsEmpty() || local.Date == 0 || cloud.Date >= local.Date {
		promoted := cloud.Clone()
		promoted.ReplyToID = 0
		t.drafts.local = promoted
	}
}

// ApplyCloudDraft folds a freshly-stored cloud draft into local state.
func (t *Timeline) ApplyCloudDraft() {
	t.CreateLocalDraftFromCloud()
}

// SkipCloudDraft reports whether an incoming cloud draft must be
// ignored: it matches text just sent, or it is an empty clear dated
// inside the debounce window after the last send.
func (t *Timeline) SkipCloudDraft(text string, replyTo models.MsgID, date int64) bool {
	if text == "" && replyTo == 0 &&
		date > 0 && date <= t.drafts.lastSentTime+skipCloudDraftWindow {
		return true
	}
	if t.drafts.lastSentTextSet && t.drafts.lastSentText == text {
		return true
	}
	return false
}

// SetSentDraftText remembers the text of a message just dispatched so
// a cloud echo of it can be recognised.
func (t *Timeline) SetSentDraftText(text string) {
	t.drafts.lastSentText = text
	t.drafts.lastSentTextSet = true
}

// ClearSentDraftText forgets the remembered text once the send settled,
// keeping the time window armed.
func (t *Timeline) ClearSentDraftText(text string) {
	if t.drafts.lastSentTextSet && t.drafts.lastSentText == text {
		t.drafts.lastSentText = ""
		t.drafts.lastSentTextSet = false
	}
	if now := t.now(); now > t.drafts.lastSentTime {
		t.drafts.lastSentTime = now
	}
}

// TakeLocalDraft moves the composer's draft from another conversation,
// used when a legacy group migrates and composition continues in the
// supergroup. The reply reference does not survive the move, ids
// belong to the old conversation.
func (t *Timeline) TakeLocalDraft(from *Timeline) {
	d := from.drafts.local
	if d.IsEmpty() || t.drafts.local != nil {
		return
	}
	moved := d.Clone()
	moved.ReplyToID = 0
	t.drafts.local = moved
	from.ClearLocalDraft()
}
