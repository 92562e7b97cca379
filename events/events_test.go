package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBus_EmitReachesSubscribers(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)

	bus.Subscribe(EventTypeTransfer, func(ctx context.Context, e Event) {
		received <- e
	})

	bus.Emit(context.Background(), TransferEvent{TransactionID: 1, SenderID: 2, ReceiverID: 3, Amount: 10})

	select {
	case e := <-received:
		transfer := e.(TransferEvent)
		assert.Equal(t, int64(1), transfer.TransactionID)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the event")
	}
}

func TestBus_EmitIgnoresOtherTypes(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)

	bus.Subscribe(EventTypeRoomClosed, func(ctx context.Context, e Event) {
		received <- e
	})

	bus.Emit(context.Background(), TransferEvent{TransactionID: 1})

	select {
	case <-received:
		t.Fatal("subscriber received an event of the wrong type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTransactionalBus_FlushAfterCommit(t *testing.T) {
	real := NewBus()
	received := make(chan Event, 2)
	real.Subscribe(EventTypeTransfer, func(ctx context.Context, e Event) {
		received <- e
	})

	txBus := NewTransactionalBus(real)
	txBus.Publish(TransferEvent{TransactionID: 1})
	txBus.Publish(TransferEvent{TransactionID: 2})

	// Nothing reaches the real bus until flush
	select {
	case <-received:
		t.Fatal("event leaked before flush")
	case <-time.After(50 * time.Millisecond):
	}

	txBus.Flush(context.Background())

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatal("pending event was not flushed")
		}
	}
}

func TestTransactionalBus_DiscardDropsPending(t *testing.T) {
	real := NewBus()
	received := make(chan Event, 1)
	real.Subscribe(EventTypeTransfer, func(ctx context.Context, e Event) {
		received <- e
	})

	txBus := NewTransactionalBus(real)
	txBus.Publish(TransferEvent{TransactionID: 1})
	txBus.Discard()
	txBus.Flush(context.Background())

	select {
	case <-received:
		t.Fatal("discarded event was still delivered")
	case <-time.After(50 * time.Millisecond):
	}
}
