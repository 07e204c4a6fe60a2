package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldbook/internal/audit"
	"fieldbook/internal/audit/store/memory"
)

func TestRecorder(t *testing.T) {
	t.Run("entries reach the store", func(t *testing.T) {
		store := memory.New()
		rec := audit.NewRecorder(store)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = rec.Run(ctx)
		}()

		rec.Record(audit.Entry{Identity: "user-1", Domain: "invoices", Format: "csv"})
		rec.Record(audit.Entry{Identity: "user-2", Domain: "services", Format: "pdf"})

		require.Eventually(t, func() bool {
			return len(store.Entries()) == 2
		}, time.Second, 10*time.Millisecond)

		entries := store.Entries()
		assert.Equal(t, "user-1", entries[0].Identity)
		assert.False(t, entries[0].Timestamp.IsZero())

		cancel()
		<-done
	})

	t.Run("full inbox drops instead of blocking", func(t *testing.T) {
		store := memory.New()
		rec := audit.NewRecorder(store, audit.WithInboxSize(1))

		// No Run loop: the first entry fills the inbox, the rest must drop
		// without blocking the caller.
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			for i := 0; i < 10; i++ {
				rec.Record(audit.Entry{Identity: "user-1", Domain: "invoices"})
			}
		}()

		select {
		case <-finished:
		case <-time.After(time.Second):
			t.Fatal("Record blocked on a full inbox")
		}
	})

	t.Run("store failure is swallowed", func(t *testing.T) {
		rec := audit.NewRecorder(failingStore{})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := make(chan error, 1)
		go func() {
			errCh <- rec.Run(ctx)
		}()

		rec.Record(audit.Entry{Identity: "user-1", Domain: "invoices"})

		// The run loop must survive the failure; only cancellation ends it.
		time.Sleep(50 * time.Millisecond)
		cancel()
		require.ErrorIs(t, <-errCh, context.Canceled)
	})
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Entry) error {
	return errors.New("sink down")
}
