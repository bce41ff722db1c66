// Package mediagroup collects the photos of one Telegram album into a single
// batch. Telegram delivers album members as separate updates with a shared
// media group ID; generation should see them as one upload.
package mediagroup

import (
	"fmt"
	"sync"
	"time"
)

const maxBatchPhotos = 10

type Item struct {
	ChatID       int64
	UserID       int64
	Username     string
	MediaGroupID string
	Caption      string
	FileID       string
}

// Batch is a flushed album: every photo of the group plus the caption, which
// Telegram attaches to only one member.
type Batch struct {
	ChatID   int64
	UserID   int64
	Username string
	Caption  string
	FileIDs  []string
}

type Options struct {
	Debounce time.Duration
	OnFlush  func(Batch)
}

type Aggregator struct {
	mu       sync.Mutex
	debounce time.Duration
	onFlush  func(Batch)
	pending  map[string]*pendingBatch
}

type pendingBatch struct {
	batch Batch
	timer *time.Timer
}

func New(opts Options) *Aggregator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 1200 * time.Millisecond
	}

	return &Aggregator{
		debounce: debounce,
		onFlush:  opts.OnFlush,
		pending:  make(map[string]*pendingBatch),
	}
}

// Add registers one album member and (re)arms the flush timer for its group.
func (a *Aggregator) Add(item Item) {
	if item.MediaGroupID == "" || item.FileID == "" {
		return
	}

	key := makeKey(item.ChatID, item.MediaGroupID)

	a.mu.Lock()
	defer a.mu.Unlock()

	pb, ok := a.pending[key]
	if !ok {
		pb = &pendingBatch{
			batch: Batch{
				ChatID:   item.ChatID,
				UserID:   item.UserID,
				Username: item.Username,
				Caption:  item.Caption,
			},
		}
		a.pending[key] = pb
	}

	if len(pb.batch.FileIDs) < maxBatchPhotos {
		pb.batch.FileIDs = append(pb.batch.FileIDs, item.FileID)
	}
	if item.Caption != "" && pb.batch.Caption == "" {
		pb.batch.Caption = item.Caption
	}

	if pb.timer != nil {
		pb.timer.Stop()
	}
	pb.timer = time.AfterFunc(a.debounce, func() {
		a.flush(key)
	})
}

// Stop cancels all pending timers without flushing.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key, pb := range a.pending {
		if pb.timer != nil {
			pb.timer.Stop()
		}
		delete(a.pending, key)
	}
}

func (a *Aggregator) flush(key string) {
	a.mu.Lock()
	pb, ok := a.pending[key]
	if ok {
		delete(a.pending, key)
	}
	a.mu.Unlock()

	if !ok || a.onFlush == nil || len(pb.batch.FileIDs) == 0 {
		return
	}
	a.onFlush(pb.batch)
}

func makeKey(chatID int64, mediaGroupID string) string {
	return fmt.Sprintf("%d:%s", chatID, mediaGroupID)
}
