package statement_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/ledgerly/internal/importer/statement"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func amount(l ledger.StatementLine) string {
	return l.Amount.StringFixed(2)
}

func TestParser_CGDConta(t *testing.T) {
	csv := `Consultar saldos e movimentos à ordem - 31-01-2026;"=""0000"""
Nome cliente;JOHN DOE
NIF;"=""123"""

Dados da conta
Conta;0000 - EUR - Conta Extracto
Saldo contabilístico;1.000,00 EUR

Dados da consulta
Período;Últimos 90 dias
Intervalo de;01-01-2026 a 31-01-2026

Data mov.;Data-valor;Descrição;Montante;Saldo contabilístico após movimento
30-01-2026;30-01-2026;INSTITUTO GESTAO FINA;-588,74;48.825,46
09-01-2026;09-01-2026;TFI Wise;8.608,52;52.532,78
`

	p := statement.NewParser(statement.CGD)
	lines, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, date(2026, 1, 30), lines[0].Date)
	assert.Equal(t, "INSTITUTO GESTAO FINA", lines[0].Description)
	assert.Equal(t, "588.74", amount(lines[0]))
	assert.Equal(t, ledger.DirectionOut, lines[0].Direction)

	assert.Equal(t, date(2026, 1, 9), lines[1].Date)
	assert.Equal(t, "TFI Wise", lines[1].Description)
	assert.Equal(t, "8608.52", amount(lines[1]))
	assert.Equal(t, ledger.DirectionIn, lines[1].Direction)
}

func TestParser_CGDExtrato(t *testing.T) {
	csv := `Consultar extrato - 15-02-2026 : 0829015676030
Nome empresa ;ACME UNIPESSOAL,LDA
Conta ;0829015676030 - EUR - Conta Extracto

Data mov. ;Data valor ;Origem ;Descrição ;Movimento ;Estorno ;Saldo contabilístico após movimento ;
13-02-2026;13-02-2026;"=""0003""";PAGAMENTO TSU ;-608,13;  ;41.393,66;
04-02-2026;04-02-2026;SIBS ;TFI Wise ;4.324,06;  ;51.302,85;
`

	p := statement.NewParser(statement.CGD)
	lines, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "PAGAMENTO TSU", lines[0].Description)
	assert.Equal(t, "608.13", amount(lines[0]))
	assert.Equal(t, ledger.DirectionOut, lines[0].Direction)

	assert.Equal(t, "4324.06", amount(lines[1]))
	assert.Equal(t, ledger.DirectionIn, lines[1].Direction)
}

func TestParser_CGDCartao(t *testing.T) {
	csv := `Consultar saldos e movimentos de cartões - 15-02-2026
Desde ;15/12/2025

Data ;Data valor ;Descrição ;Débito ;Crédito ;
16-12-2025 ;14-12-2025 ;PA GONDOMAR         GONDOMAR ;64,00 ; ;
31-12-2025 ;29-12-2025 ;REFUND AMAZON ;  ;25,00 ;
 ; ; ; ;Página 1/2 ;
`

	p := statement.NewParser(statement.CGD)
	lines, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, date(2025, 12, 16), lines[0].Date)
	assert.Equal(t, "PA GONDOMAR         GONDOMAR", lines[0].Description)
	assert.Equal(t, "64.00", amount(lines[0]))
	assert.Equal(t, ledger.DirectionOut, lines[0].Direction)

	assert.Equal(t, "25.00", amount(lines[1]))
	assert.Equal(t, ledger.DirectionIn, lines[1].Direction)
}

func TestParser_Latin1Encoding(t *testing.T) {
	utf8CSV := "Data mov.;Descrição;Montante\n30-01-2026;CAFÉ CENTRAL;-10,00\n"

	encoder := charmap.Windows1252.NewEncoder()
	latin1Bytes, err := encoder.Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	p := statement.NewParser(statement.CGD)
	lines, err := p.Parse(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)
	require.Len(t, lines, 1)

	assert.Equal(t, "CAFÉ CENTRAL", lines[0].Description)
}

func TestParser_Generic(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		want    []ledger.StatementLine
		wantErr string
	}{
		{
			name: "SignedAmount",
			csv: `date,description,amount
2024-03-05,Client A invoice 12,"1,234.56"
2024-03-09,Figma,-45.00
`,
			want: []ledger.StatementLine{
				{Date: date(2024, 3, 5), Description: "Client A invoice 12", Direction: ledger.DirectionIn},
				{Date: date(2024, 3, 9), Description: "Figma", Direction: ledger.DirectionOut},
			},
		},
		{
			name: "DebitCredit",
			csv: `Date,Description,Debit,Credit,Balance
05/03/2024,Hosting,20.00,,980.00
06/03/2024,Transfer in,,500.00,1480.00
`,
			want: []ledger.StatementLine{
				{Date: date(2024, 3, 5), Description: "Hosting", Direction: ledger.DirectionOut},
				{Date: date(2024, 3, 6), Description: "Transfer in", Direction: ledger.DirectionIn},
			},
		},
		{
			name: "ZeroAmountAndFooterSkipped",
			csv: `Date,Description,Amount
2024-03-05,Fee reversal,0.00
2024-03-06,Client B,100
Total,,100
`,
			want: []ledger.StatementLine{
				{Date: date(2024, 3, 6), Description: "Client B", Direction: ledger.DirectionIn},
			},
		},
		{
			name:    "UnknownLayout",
			csv:     "when,what,how much\n2024-03-05,x,1\n",
			wantErr: "no matching generic format",
		},
		{
			name:    "MissingDescription",
			csv:     "Date,Description,Amount\n2024-03-05,,10\n",
			wantErr: "row 2: missing description",
		},
		{
			name:    "MissingDescriptionBelowPreamble",
			csv:     "Statement for March\nAccount 123\nDate,Description,Amount\n2024-03-05,Coffee,1\n2024-03-06,,2\n",
			wantErr: "row 5: missing description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := statement.NewParser(statement.Generic)
			lines, err := p.Parse(strings.NewReader(tt.csv))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			require.Len(t, lines, len(tt.want))

			for i, want := range tt.want {
				assert.Equal(t, want.Date, lines[i].Date)
				assert.Equal(t, want.Description, lines[i].Description)
				assert.Equal(t, want.Direction, lines[i].Direction)
				assert.False(t, lines[i].Amount.IsNegative())
			}
		})
	}
}

func TestParser_GenericAmounts(t *testing.T) {
	csv := `Date,Description,Amount
2024-03-05,Big transfer,"-1,234,567.89"
`

	lines, err := statement.NewParser(statement.Generic).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, lines, 1)

	assert.Equal(t, "1234567.89", amount(lines[0]))
	assert.Equal(t, ledger.DirectionOut, lines[0].Direction)
}

func TestParser_DifferentColumnOrder(t *testing.T) {
	csv := `Random;MetaData
Montante;Descrição;Data mov.;Ignored
-10,00;TEST_ORDER;30-01-2026;XXX
`

	lines, err := statement.NewParser(statement.CGD).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, lines, 1)

	assert.Equal(t, "TEST_ORDER", lines[0].Description)
	assert.Equal(t, "10.00", amount(lines[0]))
}

func TestParser_EmptyFile(t *testing.T) {
	_, err := statement.NewParser(statement.CGD).Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching cgd format")
}

func TestParser_HeaderOnly(t *testing.T) {
	lines, err := statement.NewParser(statement.CGD).Parse(strings.NewReader(`Data mov.;Data-valor;Descrição;Montante`))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestParser_LargeEuropeanAmount(t *testing.T) {
	csv := `Data mov.;Descrição;Montante
30-01-2026;BIG TRANSFER;-1.234.567,89
Totais;;;;
`

	lines, err := statement.NewParser(statement.CGD).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, lines, 1)

	assert.Equal(t, "1234567.89", amount(lines[0]))
}
