package statement

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountSingle means one signed column (e.g. "Montante" with value "-10,00").
	amountSingle amountMode = iota
	// amountSplit means separate debit and credit columns (e.g. "Débito"/"Crédito").
	amountSplit
)

// Profile describes the column layout of one statement export.
type Profile struct {
	Name       string
	DateCol    string
	DescCol    string
	AmountMode amountMode
	AmountCol  string // used when AmountMode == amountSingle
	DebitCol   string // used when AmountMode == amountSplit
	CreditCol  string // used when AmountMode == amountSplit
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.DescCol}

	switch p.AmountMode {
	case amountSingle:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	}

	return cols
}

// Dialect is everything that differs between two statement formats: the
// field separator, how dates and numbers are written and the known column
// layouts. Profiles are tried in order, so more specific ones come first.
type Dialect struct {
	Name         string
	Comma        rune
	DateLayouts  []string
	DecimalComma bool
	Profiles     []Profile
}

// CGD reads Caixa Geral de Depósitos exports: semicolon separated,
// dd-mm-yyyy dates and 1.234,56 amounts, in three layouts (card, statement
// and account movements).
var CGD = Dialect{
	Name:         "cgd",
	Comma:        ';',
	DateLayouts:  []string{"02-01-2006"},
	DecimalComma: true,
	Profiles: []Profile{
		{
			Name:       "cartão",
			DateCol:    "Data",
			DescCol:    "Descrição",
			AmountMode: amountSplit,
			DebitCol:   "Débito",
			CreditCol:  "Crédito",
		},
		{
			Name:       "extrato",
			DateCol:    "Data mov.",
			DescCol:    "Descrição",
			AmountMode: amountSingle,
			AmountCol:  "Movimento",
		},
		{
			Name:       "conta",
			DateCol:    "Data mov.",
			DescCol:    "Descrição",
			AmountMode: amountSingle,
			AmountCol:  "Montante",
		},
	},
}

// Generic reads plain comma separated exports with ISO dates and 1,234.56
// amounts.
var Generic = Dialect{
	Name:        "generic",
	Comma:       ',',
	DateLayouts: []string{"2006-01-02", "02/01/2006"},
	Profiles: []Profile{
		{
			Name:       "split",
			DateCol:    "Date",
			DescCol:    "Description",
			AmountMode: amountSplit,
			DebitCol:   "Debit",
			CreditCol:  "Credit",
		},
		{
			Name:       "signed",
			DateCol:    "Date",
			DescCol:    "Description",
			AmountMode: amountSingle,
			AmountCol:  "Amount",
		},
	},
}
