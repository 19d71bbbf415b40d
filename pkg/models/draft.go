package models

// Draft is one composed-but-unsent message. Three independent instances
// exist per conversation: local (what the composer holds), cloud (what
// the server last reported) and edit (an in-progress message edit).
//
// Date carries the draft's server timestamp; Date == 0 on a cloud draft
// denotes a deliberate clear, which is distinct from "no draft known".
type Draft struct {
	Text             string `json:"text"`
	ReplyToID        MsgID  `json:"reply_to_id,omitempty"`
	CursorPosition   int    `json:"cursor_position,omitempty"`
	PreviewCancelled bool   `json:"preview_cancelled,omitempty"`
	Date             int64  `json:"date"`
}

// IsEmpty reports whether the draft carries nothing worth keeping.
func (d *Draft) IsEmpty() bool {
	return d == nil || (d.Text == "" && d.ReplyToID == 0)
}

// Clone returns an owned copy, nil-safe.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
