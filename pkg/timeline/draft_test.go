package timeline

import (
	"testing"
	"time"

	"timelined/pkg/models"
)

func TestSkipCloudDraftInsideSendWindow(t *testing.T) {
	_, tl, fc := newTestConv(t, models.ConvUser)
	tl.SetSentDraftText("hello there")
	tl.ClearSentDraftText("hello there")
	sent := fc.now.Unix()

	if !tl.SkipCloudDraft("", 0, sent+skipCloudDraftWindow) {
		t.Fatal("empty clear dated inside the window must be skipped")
	}
	if tl.SkipCloudDraft("", 0, sent+skipCloudDraftWindow+1) {
		t.Fatal("empty clear dated past the window must pass")
	}
	if tl.SkipCloudDraft("", 7, sent+1) {
		t.Fatal("clear with a reply target must pass")
	}
	if tl.SkipCloudDraft("fresh text", 0, sent+1) {
		t.Fatal("unrelated text inside the window must pass")
	}
}

func TestSkipCloudDraftMatchingSentText(t *testing.T) {
	_, tl, fc := newTestConv(t, models.ConvUser)
	tl.SetSentDraftText("on my way")
	far := fc.now.Unix() + 1000
	if !tl.SkipCloudDraft("on my way", 0, far) {
		t.Fatal("echo of just-sent text must be skipped regardless of date")
	}
	if tl.SkipCloudDraft("different text", 0, far) {
		t.Fatal("unrelated cloud draft must pass")
	}
	tl.ClearSentDraftText("on my way")
	if tl.SkipCloudDraft("on my way", 0, fc.now.Unix()+skipCloudDraftWindow+1) {
		t.Fatal("settled text past the window must pass")
	}
}

func TestCreateLocalDraftFromCloudRespectsFresherLocal(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.SetLocalDraft(&models.Draft{Text: "local text", Date: 200})
	tl.SetCloudDraft(&models.Draft{Text: "stale cloud", Date: 100})
	tl.CreateLocalDraftFromCloud()
	if got := tl.LocalDraft().Text; got != "local text" {
		t.Fatalf("local draft = %q, fresher local must survive", got)
	}
	tl.SetCloudDraft(&models.Draft{Text: "newer cloud", Date: 300})
	tl.CreateLocalDraftFromCloud()
	if got := tl.LocalDraft().Text; got != "newer cloud" {
		t.Fatalf("local draft = %q, newer cloud must win", got)
	}
}

func TestCreateLocalDraftFromCloudDropsReply(t *testing.T) {
	_, tl, _ := newTestConv(t, models.ConvUser)
	tl.SetCloudDraft(&models.Draft{Text: "replying", ReplyToID: 42, Date: 300})
	tl.CreateLocalDraftFromCloud()
	d := tl.LocalDraft()
	if d == nil || d.Text != "replying" {
		t.Fatalf("promoted draft = %+v", d)
	}
	if d.ReplyToID != 0 {
		t.Fatal("reply reference must not follow the draft into the composer")
	}
	if tl.CloudDraft().ReplyToID != 42 {
		t.Fatal("cloud slot must keep its reply reference")
	}
}

func TestCreateCloudDraftStampsAndClears(t *testing.T) {
	_, tl, fc := newTestConv(t, models.ConvUser)
	fc.now = fc.now.Add(time.Hour)
	d := tl.CreateCloudDraft(&models.Draft{Text: "saving this"})
	if d.Date != fc.now.Unix() {
		t.Fatalf("cloud draft date = %d, want stamp %d", d.Date, fc.now.Unix())
	}
	cleared := tl.CreateCloudDraft(nil)
	if cleared == nil || cleared.Date != 0 || cleared.Text != "" {
		t.Fatalf("clearing save must leave a dated-zero marker, got %+v", cleared)
	}
}

func TestTakeLocalDraftDropsReply(t *testing.T) {
	reg, _, _ := newTestConv(t, models.ConvGroup)
	group := reg.peek(100)
	super := reg.get(models.ConversationInfo{ID: 200, Kind: models.ConvSupergroup})
	group.SetLocalDraft(&models.Draft{Text: "typed in the old group", ReplyToID: 42, Date: 50})

	super.TakeLocalDraft(group)
	moved := super.LocalDraft()
	if moved == nil || moved.Text != "typed in the old group" {
		t.Fatalf("draft did not move: %+v", moved)
	}
	if moved.ReplyToID != 0 {
		t.Fatal("reply reference must not survive the move")
	}
	if group.LocalDraft() != nil {
		t.Fatal("source draft must clear after the move")
	}
}

func TestTakeLocalDraftKeepsExistingTarget(t *testing.T) {
	reg, _, _ := newTestConv(t, models.ConvGroup)
	group := reg.peek(100)
	super := reg.get(models.ConversationInfo{ID: 200, Kind: models.ConvSupergroup})
	super.SetLocalDraft(&models.Draft{Text: "already composing here", Date: 60})
	group.SetLocalDraft(&models.Draft{Text: "older group draft", Date: 50})

	super.TakeLocalDraft(group)
	if got := super.LocalDraft().Text; got != "already composing here" {
		t.Fatalf("target draft overwritten: %q", got)
	}
}

func TestApplyDialogHonorsDraftDebounce(t *testing.T) {
	_, tl, fc := newTestConv(t, models.ConvUser)
	tl.SetSentDraftText("sent text")
	tl.ApplyDialog(models.DialogEntry{
		Draft: &models.Draft{Text: "sent text", Date: fc.now.Unix() + 1},
	})
	if tl.CloudDraft() != nil {
		t.Fatal("echo of just-sent text must be dropped")
	}
	tl.ClearSentDraftText("sent text")
	tl.ApplyDialog(models.DialogEntry{
		Draft: &models.Draft{Text: "later draft", Date: fc.now.Unix() + skipCloudDraftWindow + 5},
	})
	if d := tl.CloudDraft(); d == nil || d.Text != "later draft" {
		t.Fatalf("cloud draft = %+v, want the later draft applied", d)
	}
	if d := tl.LocalDraft(); d == nil || d.Text != "later draft" {
		t.Fatalf("local draft = %+v, cloud apply must promote", d)
	}
}
