package hub

import (
	"sync"
	"time"
)

// ReceiptLedger tracks, per message, which recipients have confirmed
// durable local persistence. Receipts are transient: they only exist to
// trigger payload stripping, and the set is discarded once that fires.
// Sets that never complete (a recipient that uninstalls, say) are
// reaped by Prune so the ledger cannot grow without bound.
type ReceiptLedger struct {
	mu       sync.Mutex
	receipts map[string]*receiptSet // messageID -> confirmations
}

type receiptSet struct {
	confirmed map[string]struct{}
	updatedAt time.Time
}

func NewReceiptLedger() *ReceiptLedger {
	return &ReceiptLedger{
		receipts: make(map[string]*receiptSet),
	}
}

// Confirm records one confirmation and returns the resulting set size.
// Add-then-count runs under one lock acquisition so two concurrent
// confirmations for the same message cannot both observe the final
// count.
func (l *ReceiptLedger) Confirm(messageID, userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.receipts[messageID]
	if !ok {
		set = &receiptSet{confirmed: make(map[string]struct{})}
		l.receipts[messageID] = set
	}
	set.confirmed[userID] = struct{}{}
	set.updatedAt = time.Now()
	return len(set.confirmed)
}

// Drop discards the receipt set for a message.
func (l *ReceiptLedger) Drop(messageID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.receipts, messageID)
}

// Tracked returns the number of messages with outstanding receipts.
func (l *ReceiptLedger) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.receipts)
}

// Prune discards receipt sets with no confirmation for maxIdle and
// returns how many were dropped. A pruned message keeps its payload; a
// later confirmation simply starts a fresh round.
func (l *ReceiptLedger) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	l.mu.Lock()
	defer l.mu.Unlock()

	pruned := 0
	for messageID, set := range l.receipts {
		if set.updatedAt.Before(cutoff) {
			delete(l.receipts, messageID)
			pruned++
		}
	}
	return pruned
}
