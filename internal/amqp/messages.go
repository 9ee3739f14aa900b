package amqp

import (
	"encoding/json"

	"github.com/MrJamesThe3rd/ledgerly/internal/event"
)

// Encode is the wire form of a ledger event.
func Encode(e event.LedgerChanged) ([]byte, error) {
	return json.Marshal(e)
}
