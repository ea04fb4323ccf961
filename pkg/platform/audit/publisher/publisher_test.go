package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "cedent/pkg/domain"
	audit "cedent/pkg/platform/audit"
	"cedent/pkg/platform/audit/store/memory"
	"cedent/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	require.Nil(t, pub.Inbox(), "sync mode has no inbox")

	policyID := uuid.NewString()
	event := audit.Event{
		EntityType:  audit.EntityPolicy,
		EntityID:    policyID,
		Action:      audit.ActionApprove,
		PerformedBy: id.UserID(uuid.New()),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), audit.EntityPolicy, policyID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionApprove, events[0].Action)
}

func TestPublisher_AsyncEnqueuesToInbox(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	require.NotNil(t, pub.Inbox())

	err := pub.Emit(context.Background(), audit.Event{
		EntityType: audit.EntityClaim,
		EntityID:   "c-1",
		Action:     audit.ActionSettle,
	})
	require.NoError(t, err)

	// The publisher only enqueues; nothing reaches the store until a
	// worker consumes the inbox.
	events, err := store.ListByEntity(context.Background(), audit.EntityClaim, "c-1")
	require.NoError(t, err)
	assert.Empty(t, events)

	select {
	case got := <-pub.Inbox():
		assert.Equal(t, audit.ActionSettle, got.Action)
	default:
		t.Fatal("expected a buffered event on the inbox")
	}
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			event := audit.Event{
				EntityType: audit.EntityPolicy,
				EntityID:   "overflow",
				Action:     audit.ActionCreate,
			}
			_ = pub.Emit(context.Background(), event)
		}()
	}
	wg.Wait()
	// Some events may be dropped (buffer size 1); the publisher must not
	// block or panic, and Emit never returns an error in async mode.
}

func TestPublisher_CloseIsIdempotent(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()
}

func TestPublisher_FillsTimestampFromContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)

	err := pub.Emit(ctx, audit.Event{
		EntityType: audit.EntityTreaty,
		EntityID:   "t-1",
		Action:     audit.ActionCreate,
	})
	require.NoError(t, err)

	events, err := store.ListByEntity(context.Background(), audit.EntityTreaty, "t-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].PerformedAt)
}
