// Package event carries ledger change notifications from the services that
// mutate records to whoever needs to react (cache invalidation, broker
// fan-out, a presentation session). A Bus is an ordinary value owned by its
// creator; there is no process-wide instance.
package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

type Entity string

const (
	EntityProject    Entity = "project"
	EntityPayment    Entity = "payment"
	EntityExpense    Entity = "expense"
	EntityTeamMember Entity = "team_member"
	EntityUser       Entity = "user"
	EntityCompany    Entity = "company"
)

// LedgerChanged describes one committed mutation. Period is set for
// payments and expenses so listeners can scope their reaction to a month.
type LedgerChanged struct {
	CompanyID uuid.UUID     `json:"company_id"`
	Entity    Entity        `json:"entity"`
	Action    Action        `json:"action"`
	ID        uuid.UUID     `json:"id"`
	Period    *period.Month `json:"period,omitempty"`
	At        time.Time     `json:"at"`
}

type Handler func(ctx context.Context, e LedgerChanged)

// Bus delivers events synchronously to every subscriber in subscription order.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]Handler
	ids  []int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers h and returns a function removing it again.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.subs[id] = h
	b.ids = append(b.ids, id)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		delete(b.subs, id)

		for i, v := range b.ids {
			if v == id {
				b.ids = append(b.ids[:i], b.ids[i+1:]...)
				break
			}
		}
	}
}

func (b *Bus) Publish(ctx context.Context, e LedgerChanged) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.ids))
	for _, id := range b.ids {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, e)
	}
}
