package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
)

func TestService_Parse(t *testing.T) {
	tests := []struct {
		name     string
		format   importer.Format
		body     string
		wantLen  int
		wantKind apperror.Kind
	}{
		{
			name:    "CGD",
			format:  importer.FormatCGD,
			body:    "Data mov.;Descrição;Montante\n30-01-2026;TEST;-10,00\n",
			wantLen: 1,
		},
		{
			name:    "DefaultsToGeneric",
			body:    "Date,Description,Amount\n2024-03-05,Client,10.00\n",
			wantLen: 1,
		},
		{
			name:     "UnknownFormat",
			format:   "ofx",
			body:     "",
			wantKind: apperror.KindInvalidArgument,
		},
		{
			name:     "WrongFormatForFile",
			format:   importer.FormatGeneric,
			body:     "Data mov.;Descrição;Montante\n30-01-2026;TEST;-10,00\n",
			wantKind: apperror.KindInvalidArgument,
		},
	}

	svc := importer.NewService()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := svc.Parse(tt.format, strings.NewReader(tt.body))
			if tt.wantKind != "" {
				assert.True(t, apperror.Is(err, tt.wantKind), "got %v", err)
				return
			}

			require.NoError(t, err)
			require.Len(t, lines, tt.wantLen)
			assert.Contains(t, []ledger.Direction{ledger.DirectionIn, ledger.DirectionOut}, lines[0].Direction)
		})
	}
}
