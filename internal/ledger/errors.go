package ledger

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
)

var (
	// ErrNotFound is returned by the store when no row matches within the company.
	ErrNotFound = errors.New("not found")

	// ErrDateImmutable rejects updates that would move a payment or expense
	// to another date, which would leave its stored month and year stale.
	ErrDateImmutable = errors.New("date cannot be changed after creation")
)

// ParseID parses a record identifier supplied by a caller.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, apperror.InvalidArgument("invalid id %q", s)
	}

	return id, nil
}

// classify turns a repository error into the caller facing taxonomy.
func classify(err error, notFound string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNotFound) {
		return apperror.NotFound("%s", notFound)
	}

	return apperror.Store(err)
}
