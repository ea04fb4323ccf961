package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "cedent/pkg/platform/audit"
	"cedent/pkg/platform/audit/publisher"
	"cedent/pkg/platform/audit/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_DrainsInboxOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := publisher.NewPublisher(store, publisher.WithAsyncBuffer(100))
	w := New(store, pub.Inbox(), testLogger())

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	claimID := "c-drain"
	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			EntityType: audit.EntityClaim,
			EntityID:   claimID,
			Action:     audit.ActionSettle,
		}))
	}
	pub.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after the inbox closed")
	}

	events, err := store.ListByEntity(context.Background(), audit.EntityClaim, claimID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "every enqueued event reaches the store")
}

func TestWorker_FlushesBufferedEventsOnCancel(t *testing.T) {
	store := memory.NewInMemoryStore()
	inbox := make(chan audit.Event, 5)
	for range 3 {
		inbox <- audit.Event{
			EntityType: audit.EntityPolicy,
			EntityID:   "p-flush",
			Action:     audit.ActionActivate,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(store, inbox, testLogger()).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	events, err := store.ListByEntity(context.Background(), audit.EntityPolicy, "p-flush")
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

type failingStore struct{ audit.Store }

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("store down")
}

func TestWorker_StoreFailureIsNotFatal(t *testing.T) {
	inbox := make(chan audit.Event, 2)
	inbox <- audit.Event{EntityType: audit.EntityPolicy, EntityID: "p-1", Action: audit.ActionCreate}
	close(inbox)

	err := New(failingStore{}, inbox, testLogger()).Run(context.Background())
	assert.NoError(t, err, "persist failures are logged, not returned")
}
