package event_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/ledgerly/internal/event"
)

func TestBus_PublishOrderAndUnsubscribe(t *testing.T) {
	bus := event.NewBus()

	var got []string

	unsubA := bus.Subscribe(func(_ context.Context, e event.LedgerChanged) {
		got = append(got, "a:"+string(e.Entity))
	})
	bus.Subscribe(func(_ context.Context, e event.LedgerChanged) {
		got = append(got, "b:"+string(e.Entity))
	})

	bus.Publish(context.Background(), event.LedgerChanged{CompanyID: uuid.New(), Entity: event.EntityPayment, Action: event.ActionCreated})
	assert.Equal(t, []string{"a:payment", "b:payment"}, got)

	unsubA()
	got = nil

	bus.Publish(context.Background(), event.LedgerChanged{Entity: event.EntityExpense})
	assert.Equal(t, []string{"b:expense"}, got)
}

func TestBus_StampsTime(t *testing.T) {
	bus := event.NewBus()

	var seen event.LedgerChanged

	bus.Subscribe(func(_ context.Context, e event.LedgerChanged) { seen = e })
	bus.Publish(context.Background(), event.LedgerChanged{Entity: event.EntityProject})

	assert.False(t, seen.At.IsZero())
}

func TestBus_Independent(t *testing.T) {
	a, b := event.NewBus(), event.NewBus()

	calls := 0
	a.Subscribe(func(context.Context, event.LedgerChanged) { calls++ })

	b.Publish(context.Background(), event.LedgerChanged{})
	assert.Zero(t, calls)
}
