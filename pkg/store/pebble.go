// Package store persists conversation snapshots and message bodies in
// a Pebble key-value database. The in-memory timeline engine is the
// source of truth while running; the store exists to warm it up after
// a restart and to serve pages that fell out of memory.
package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"

	"timelined/pkg/logger"
	"timelined/pkg/models"
)

var (
	db     *pebble.DB
	mu     sync.RWMutex
	dbPath string
)

// Keys:
//   conv:<conv16x>:msg:<id16x>  message body (JSON)
//   conv:<conv16x>:snap         conversation snapshot (JSON)
func msgKey(convID int64, id models.MsgID) []byte {
	return []byte(fmt.Sprintf("conv:%016x:msg:%016x", uint64(convID), uint64(id)))
}

func msgPrefix(convID int64) []byte {
	return []byte(fmt.Sprintf("conv:%016x:msg:", uint64(convID)))
}

func snapKey(convID int64) []byte {
	return []byte(fmt.Sprintf("conv:%016x:snap", uint64(convID)))
}

// Open opens or creates the database at path.
func Open(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if db != nil {
		return fmt.Errorf("store already open at %s", dbPath)
	}
	d, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("open pebble at %s: %w", path, err)
	}
	db = d
	dbPath = path
	logger.Info("store_opened", "path", path)
	return nil
}

// Close flushes and closes the database.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	logger.Info("store_closed", "path", dbPath)
	return err
}

// Ready reports whether the store is open.
func Ready() bool {
	mu.RLock()
	defer mu.RUnlock()
	return db != nil
}

func getDB() (*pebble.DB, error) {
	mu.RLock()
	defer mu.RUnlock()
	if db == nil {
		return nil, fmt.Errorf("store not open")
	}
	return db, nil
}

// SaveMessage writes one message body.
func SaveMessage(convID int64, msg models.Message) error {
	d, err := getDB()
	if err != nil {
		return err
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message %d: %w", msg.ID, err)
	}
	if err := d.Set(msgKey(convID, msg.ID), b, pebble.Sync); err != nil {
		opFailures.WithLabelValues("save_message").Inc()
		return fmt.Errorf("save message %d: %w", msg.ID, err)
	}
	opTotal.WithLabelValues("save_message").Inc()
	return nil
}

// SaveMessages writes a batch of message bodies atomically.
func SaveMessages(convID int64, msgs []models.Message) error {
	d, err := getDB()
	if err != nil {
		return err
	}
	batch := d.NewBatch()
	defer batch.Close()
	for _, msg := range msgs {
		b, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal message %d: %w", msg.ID, err)
		}
		if err := batch.Set(msgKey(convID, msg.ID), b, nil); err != nil {
			return fmt.Errorf("batch message %d: %w", msg.ID, err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		opFailures.WithLabelValues("save_batch").Inc()
		return fmt.Errorf("commit batch: %w", err)
	}
	opTotal.WithLabelValues("save_batch").Inc()
	return nil
}

// ListMessages returns up to limit messages strictly below beforeID
// (all when 0), newest-first.
func ListMessages(convID int64, limit int, beforeID models.MsgID) ([]models.Message, error) {
	d, err := getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	lower := msgPrefix(convID)
	var upper []byte
	if beforeID != 0 {
		upper = msgKey(convID, beforeID)
	} else {
		upper = append(append([]byte{}, lower...), 0xff)
	}
	iter, err := d.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	defer iter.Close()
	out := make([]models.Message, 0, limit)
	for ok := iter.Last(); ok && len(out) < limit; ok = iter.Prev() {
		var msg models.Message
		if err := json.Unmarshal(iter.Value(), &msg); err != nil {
			logger.Warn("store_bad_message", "key", string(iter.Key()), "error", err.Error())
			continue
		}
		out = append(out, msg)
	}
	opTotal.WithLabelValues("list_messages").Inc()
	return out, nil
}

// DeleteMessage removes one message body.
func DeleteMessage(convID int64, id models.MsgID) error {
	d, err := getDB()
	if err != nil {
		return err
	}
	if err := d.Delete(msgKey(convID, id), pebble.Sync); err != nil {
		opFailures.WithLabelValues("delete_message").Inc()
		return fmt.Errorf("delete message %d: %w", id, err)
	}
	opTotal.WithLabelValues("delete_message").Inc()
	return nil
}

// DeleteMessagesBelow removes every stored message with id below min.
func DeleteMessagesBelow(convID int64, min models.MsgID) (int, error) {
	d, err := getDB()
	if err != nil {
		return 0, err
	}
	lower := msgPrefix(convID)
	upper := msgKey(convID, min)
	iter, err := d.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return 0, fmt.Errorf("iterate messages: %w", err)
	}
	batch := d.NewBatch()
	deleted := 0
	for ok := iter.First(); ok; ok = iter.Next() {
		key := append([]byte{}, iter.Key()...)
		if err := batch.Delete(key, nil); err != nil {
			iter.Close()
			batch.Close()
			return 0, fmt.Errorf("batch delete: %w", err)
		}
		deleted++
	}
	iter.Close()
	if err := batch.Commit(pebble.Sync); err != nil {
		batch.Close()
		opFailures.WithLabelValues("delete_below").Inc()
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	batch.Close()
	opTotal.WithLabelValues("delete_below").Inc()
	return deleted, nil
}

// DeleteConversation removes everything stored for a conversation.
func DeleteConversation(convID int64) error {
	d, err := getDB()
	if err != nil {
		return err
	}
	prefix := []byte(fmt.Sprintf("conv:%016x:", uint64(convID)))
	upper := append(append([]byte{}, prefix...), 0xff)
	if err := d.DeleteRange(prefix, upper, pebble.Sync); err != nil {
		opFailures.WithLabelValues("delete_conversation").Inc()
		return fmt.Errorf("delete conversation %d: %w", convID, err)
	}
	opTotal.WithLabelValues("delete_conversation").Inc()
	return nil
}

// Snapshot is the durable per-conversation state beyond the message
// bodies: metadata, counters and drafts.
type Snapshot struct {
	Info       models.ConversationInfo `json:"info"`
	Dialog     models.DialogEntry      `json:"dialog"`
	LocalDraft *models.Draft           `json:"local_draft,omitempty"`
	EditDraft  *models.Draft           `json:"edit_draft,omitempty"`
}

// SaveSnapshot writes the conversation snapshot.
func SaveSnapshot(convID int64, snap Snapshot) error {
	d, err := getDB()
	if err != nil {
		return err
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %d: %w", convID, err)
	}
	if err := d.Set(snapKey(convID), b, pebble.Sync); err != nil {
		opFailures.WithLabelValues("save_snapshot").Inc()
		return fmt.Errorf("save snapshot %d: %w", convID, err)
	}
	opTotal.WithLabelValues("save_snapshot").Inc()
	return nil
}

// LoadSnapshot reads the conversation snapshot; ok=false when absent.
func LoadSnapshot(convID int64) (Snapshot, bool, error) {
	d, err := getDB()
	if err != nil {
		return Snapshot{}, false, err
	}
	val, closer, err := d.Get(snapKey(convID))
	if err == pebble.ErrNotFound {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load snapshot %d: %w", convID, err)
	}
	defer closer.Close()
	var snap Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot %d: %w", convID, err)
	}
	opTotal.WithLabelValues("load_snapshot").Inc()
	return snap, true, nil
}

// ListConversations scans the snapshot keys and returns every stored
// conversation id.
func ListConversations() ([]int64, error) {
	d, err := getDB()
	if err != nil {
		return nil, err
	}
	iter, err := d.NewIter(&pebble.IterOptions{
		LowerBound: []byte("conv:"),
		UpperBound: []byte("conv;"),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	defer iter.Close()
	var out []int64
	for ok := iter.First(); ok; ok = iter.Next() {
		key := string(iter.Key())
		if !strings.HasSuffix(key, ":snap") {
			continue
		}
		var raw uint64
		if _, err := fmt.Sscanf(key, "conv:%016x:snap", &raw); err != nil {
			continue
		}
		out = append(out, int64(raw))
	}
	return out, nil
}
