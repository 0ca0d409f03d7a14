// Package schema holds the per-bank column mapping table and checks that a
// statement carries every column its bank adapter needs.
package schema

import (
	"fmt"

	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"
)

// Caixabank column titles.
const (
	CaixaOperationDate = "F. Operación"
	CaixaValueDate     = "F. Valor"
	CaixaIncome        = "Ingreso (+)"
	CaixaExpense       = "Gasto (-)"
	CaixaCurrency      = "Divisa"
	CaixaBalancePlus   = "Saldo (+)"
	CaixaBalanceMinus  = "Saldo (-)"
	CaixaOffice        = "Oficina"
	CaixaCommonConcept = "Concepto común"
	CaixaOwnConcept    = "Concepto propio"
	CaixaReference1    = "Referencia 1"
	CaixaReference2    = "Referencia 2"
	CaixaExtraConcept1 = "Concepto complementario 1"
	CaixaExtraConcept2 = "Concepto complementario 2"
)

// Santander column titles.
const (
	SantanderOperationDate = "Fecha Operación"
	SantanderValueDate     = "Fecha Valor"
	SantanderConcept       = "Concepto"
	SantanderAmount        = "Importe"
	SantanderCurrency      = "Divisa"
	SantanderBalance       = "Saldo"
	SantanderReference1    = "Referencia 1"
	SantanderReference2    = "Referencia 2"
	SantanderAdditional    = "Información adicional"
)

// Mapping describes one version of a bank's export layout.
type Mapping struct {
	Bank     models.Bank
	Version  int
	Required []string
	Optional []string
}

// Columns lists every column of the layout, required first. The header row
// of a sheet is the one naming the most of them.
func (m Mapping) Columns() []string {
	cols := make([]string, 0, len(m.Required)+len(m.Optional))
	cols = append(cols, m.Required...)
	return append(cols, m.Optional...)
}

var mappings = map[models.Bank]Mapping{
	models.BankCaixabank: {
		Bank:     models.BankCaixabank,
		Version:  2,
		Required: []string{CaixaOperationDate, CaixaValueDate, CaixaIncome, CaixaExpense, CaixaCurrency},
		Optional: []string{
			CaixaBalancePlus, CaixaBalanceMinus, CaixaOffice,
			CaixaCommonConcept, CaixaOwnConcept,
			CaixaReference1, CaixaReference2, CaixaExtraConcept1, CaixaExtraConcept2,
		},
	},
	models.BankSantander: {
		Bank:     models.BankSantander,
		Version:  1,
		Required: []string{SantanderOperationDate, SantanderValueDate, SantanderConcept, SantanderAmount, SantanderCurrency},
		Optional: []string{SantanderBalance, SantanderReference1, SantanderReference2, SantanderAdditional},
	},
}

// Lookup returns the current mapping for bank.
func Lookup(bank models.Bank) (Mapping, error) {
	m, ok := mappings[bank]
	if !ok {
		return Mapping{}, fmt.Errorf("%w: %s", parsererror.ErrUnknownBank, bank)
	}
	return m, nil
}

// Validate returns the required columns missing from firstRow, in mapping
// order. An empty result means the statement is usable.
func Validate(bank models.Bank, firstRow models.RawRow) ([]string, error) {
	m, err := Lookup(bank)
	if err != nil {
		return nil, err
	}

	missing := []string{}
	for _, col := range m.Required {
		if !firstRow.Has(col) {
			missing = append(missing, col)
		}
	}
	return missing, nil
}
