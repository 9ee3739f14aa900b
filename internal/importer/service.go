// Package importer turns uploaded bank statements into statement lines ready
// for ledger.Service.ImportStatement.
package importer

import (
	"io"

	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer/statement"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
)

type Service struct {
	parsers map[Format]Parser
}

func NewService() *Service {
	return &Service{
		parsers: map[Format]Parser{
			FormatCGD:     statement.NewParser(statement.CGD),
			FormatGeneric: statement.NewParser(statement.Generic),
		},
	}
}

// Parse reads a statement in the given format. An empty format means generic.
func (s *Service) Parse(format Format, r io.Reader) ([]ledger.StatementLine, error) {
	if format == "" {
		format = FormatGeneric
	}

	parser, ok := s.parsers[format]
	if !ok {
		return nil, apperror.InvalidArgument("unknown statement format %q", format)
	}

	lines, err := parser.Parse(r)
	if err != nil {
		return nil, apperror.InvalidArgument("%s", err)
	}

	return lines, nil
}
