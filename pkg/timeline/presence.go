package timeline

import (
	"fmt"
	"time"

	"timelined/pkg/models"
)

// Client-side display lifetimes for peer activity. Game sessions stay
// visible longer than the rest.
const (
	typingTTL     = 6 * time.Second
	sendActionTTL = 6 * time.Second
	playGameTTL   = 10 * time.Second
)

type sendAction struct {
	kind     models.SendActionKind
	until    time.Time
	progress int
}

// presenceState mirrors who is typing and who is performing a slower
// action. A user sits in at most one of the two maps; the order slices
// keep registration order for deterministic status wording.
type presenceState struct {
	typing      map[int64]time.Time
	typingOrder []int64
	actions     map[int64]sendAction
	actionOrder []int64
	status      string
}

func (p *presenceState) removeTyping(userID int64) {
	if _, ok := p.typing[userID]; !ok {
		return
	}
	delete(p.typing, userID)
	for i, id := range p.typingOrder {
		if id == userID {
			p.typingOrder = append(p.typingOrder[:i], p.typingOrder[i+1:]...)
			break
		}
	}
}

func (p *presenceState) removeAction(userID int64) {
	if _, ok := p.actions[userID]; !ok {
		return
	}
	delete(p.actions, userID)
	for i, id := range p.actionOrder {
		if id == userID {
			p.actionOrder = append(p.actionOrder[:i], p.actionOrder[i+1:]...)
			break
		}
	}
}

func (p *presenceState) setTyping(userID int64, until time.Time) {
	p.removeAction(userID)
	if p.typing == nil {
		p.typing = make(map[int64]time.Time)
	}
	if _, ok := p.typing[userID]; !ok {
		p.typingOrder = append(p.typingOrder, userID)
	}
	p.typing[userID] = until
}

func (p *presenceState) setAction(userID int64, a sendAction) {
	p.removeTyping(userID)
	if p.actions == nil {
		p.actions = make(map[int64]sendAction)
	}
	if _, ok := p.actions[userID]; !ok {
		p.actionOrder = append(p.actionOrder, userID)
	}
	p.actions[userID] = a
}

// RegisterSendAction records a peer activity at the given instant and
// reports whether anything is visibly active afterwards. Own actions
// are not displayed back to their author.
func (t *Timeline) RegisterSendAction(userID int64, kind models.SendActionKind, progress int, when time.Time) bool {
	if userID == t.info.SelfID {
		return t.hasPresence()
	}
	switch kind {
	case models.SendActionTyping:
		t.presence.setTyping(userID, when.Add(typingTTL))
	case models.SendActionPlayGame:
		t.presence.setAction(userID, sendAction{kind: kind, until: when.Add(playGameTTL), progress: progress})
	default:
		t.presence.setAction(userID, sendAction{kind: kind, until: when.Add(sendActionTTL), progress: progress})
	}
	return t.UpdateSendActions(when)
}

// CancelSendAction drops whatever activity the user had registered.
func (t *Timeline) CancelSendAction(userID int64) {
	t.presence.removeTyping(userID)
	t.presence.removeAction(userID)
	t.rebuildSendActionStatus()
}

// clearSendAction is CancelSendAction for a user whose message just
// arrived, their activity resolved into content.
func (t *Timeline) clearSendAction(userID int64) {
	t.CancelSendAction(userID)
}

// UpdateSendActions expires entries against now, refreshes the
// aggregate status and reports whether anything remains active.
func (t *Timeline) UpdateSendActions(now time.Time) bool {
	p := &t.presence
	for i := 0; i < len(p.typingOrder); {
		id := p.typingOrder[i]
		if !p.typing[id].After(now) {
			p.removeTyping(id)
			continue
		}
		i++
	}
	for i := 0; i < len(p.actionOrder); {
		id := p.actionOrder[i]
		if !p.actions[id].until.After(now) {
			p.removeAction(id)
			continue
		}
		i++
	}
	t.rebuildSendActionStatus()
	return t.hasPresence()
}

// SendActionStatus sweeps against now and returns the aggregate line,
// empty when nobody is active.
func (t *Timeline) SendActionStatus(now time.Time) string {
	t.UpdateSendActions(now)
	return t.presence.status
}

func (t *Timeline) hasPresence() bool {
	return len(t.presence.typingOrder) > 0 || len(t.presence.actionOrder) > 0
}

func (t *Timeline) rebuildSendActionStatus() {
	t.presence.status = t.composeSendActionStatus()
}

func (t *Timeline) composeSendActionStatus() string {
	p := &t.presence
	name := t.reg.userName
	direct := t.info.Kind == models.ConvUser
	if n := len(p.typingOrder); n > 0 {
		switch {
		case direct:
			return "typing"
		case n == 1:
			return name(p.typingOrder[0]) + " is typing"
		case n == 2:
			return name(p.typingOrder[0]) + " and " + name(p.typingOrder[1]) + " are typing"
		default:
			return fmt.Sprintf("%d people are typing", n)
		}
	}
	if len(p.actionOrder) == 0 {
		return ""
	}
	// A concrete action beats game sessions in the status line.
	for _, id := range p.actionOrder {
		a := p.actions[id]
		if a.kind == models.SendActionPlayGame {
			continue
		}
		if direct {
			return sendActionLabel(a.kind)
		}
		return name(id) + " is " + sendActionLabel(a.kind)
	}
	switch n := len(p.actionOrder); {
	case direct:
		return "playing a game"
	case n == 1:
		return name(p.actionOrder[0]) + " is playing a game"
	default:
		return fmt.Sprintf("%d people are playing a game", n)
	}
}

func sendActionLabel(kind models.SendActionKind) string {
	switch kind {
	case models.SendActionRecordVideo:
		return "recording a video"
	case models.SendActionUploadVideo:
		return "uploading a video"
	case models.SendActionRecordVoice:
		return "recording a voice message"
	case models.SendActionUploadVoice:
		return "uploading a voice message"
	case models.SendActionUploadPhoto:
		return "uploading a photo"
	case models.SendActionUploadFile:
		return "uploading a file"
	case models.SendActionChooseLocation:
		return "choosing a location"
	case models.SendActionChooseContact:
		return "choosing a contact"
	case models.SendActionPlayGame:
		return "playing a game"
	}
	return "typing"
}
