package importer

import (
	"io"

	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
)

// Format names a supported bank statement export.
type Format string

const (
	FormatCGD     Format = "cgd"
	FormatGeneric Format = "generic"
)

type Parser interface {
	Parse(r io.Reader) ([]ledger.StatementLine, error)
}
