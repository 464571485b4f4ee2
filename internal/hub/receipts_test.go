package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReceiptConfirmCounts(t *testing.T) {
	l := NewReceiptLedger()

	assert.Equal(t, 1, l.Confirm("m1", "alice"))
	assert.Equal(t, 1, l.Confirm("m1", "alice"), "repeat confirmation does not grow the set")
	assert.Equal(t, 2, l.Confirm("m1", "bob"))
	assert.Equal(t, 1, l.Confirm("m2", "alice"))
	assert.Equal(t, 2, l.Tracked())
}

func TestReceiptDrop(t *testing.T) {
	l := NewReceiptLedger()

	l.Confirm("m1", "alice")
	l.Drop("m1")
	assert.Zero(t, l.Tracked())

	// confirming after a drop starts a fresh set
	assert.Equal(t, 1, l.Confirm("m1", "bob"))
}

func TestReceiptPruneDiscardsIdleSets(t *testing.T) {
	l := NewReceiptLedger()

	l.Confirm("stale", "alice")
	l.Confirm("fresh", "bob")
	l.receipts["stale"].updatedAt = time.Now().Add(-48 * time.Hour)

	assert.Equal(t, 1, l.Prune(24*time.Hour))
	assert.Equal(t, 1, l.Tracked(), "recently touched sets survive")

	// a confirmation after pruning starts a fresh round
	assert.Equal(t, 1, l.Confirm("stale", "alice"))
}

func TestReceiptConcurrentConfirmsExactlyOneWinner(t *testing.T) {
	l := NewReceiptLedger()

	const recipients = 32
	var wg sync.WaitGroup
	winners := make(chan int, recipients)

	for i := 0; i < recipients; i++ {
		userID := string(rune('a' + i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Confirm("m1", userID) == recipients {
				winners <- 1
			}
		}()
	}
	wg.Wait()
	close(winners)

	assert.Len(t, winners, 1, "exactly one confirmation observes the full count")
}
