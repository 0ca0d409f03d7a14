// Package caixabankparser maps Caixabank statement rows to movements.
// Caixabank splits amounts and balances into a credit and a debit column and
// spreads the description over two concept columns.
package caixabankparser

import (
	"fjacquet/bank-movements/internal/localeparse"
	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parser"
	"fjacquet/bank-movements/internal/parsererror"
	"fjacquet/bank-movements/internal/schema"

	"github.com/shopspring/decimal"
)

// Adapter implements parser.BankAdapter for Caixabank exports.
type Adapter struct {
	parser.BaseParser
}

// NewAdapter creates a Caixabank adapter.
func NewAdapter(logger logging.Logger, policy localeparse.Policy) *Adapter {
	if logger != nil {
		logger = logger.WithField(logging.FieldBank, string(models.BankCaixabank))
	}
	return &Adapter{BaseParser: parser.NewBaseParser(logger, policy)}
}

// Bank implements parser.BankAdapter.
func (a *Adapter) Bank() models.Bank {
	return models.BankCaixabank
}

// Transform implements parser.BankAdapter.
func (a *Adapter) Transform(rows []models.RawRow) ([]models.Movement, []parsererror.RowError) {
	return a.MapRows(models.BankCaixabank, rows, a.mapRow)
}

func (a *Adapter) mapRow(row models.RawRow) (*models.Movement, error) {
	policy := a.Policy()

	date, err := policy.Date(row, schema.CaixaOperationDate)
	if err != nil {
		return nil, err
	}
	valueDate, err := policy.Date(row, schema.CaixaValueDate)
	if err != nil {
		return nil, err
	}
	if date == nil && valueDate == nil {
		return nil, nil
	}

	income, err := policy.Amount(row, schema.CaixaIncome)
	if err != nil {
		return nil, err
	}
	expense, err := policy.Amount(row, schema.CaixaExpense)
	if err != nil {
		return nil, err
	}

	balance, err := a.balance(row)
	if err != nil {
		return nil, err
	}

	currency, err := policy.Currency(row, schema.CaixaCurrency)
	if err != nil {
		return nil, err
	}

	return &models.Movement{
		Bank:      models.BankCaixabank,
		Date:      date,
		ValueDate: valueDate,
		Description: localeparse.Truncate(
			localeparse.JoinNonEmpty(" - ", row.Text(schema.CaixaCommonConcept), row.Text(schema.CaixaOwnConcept)),
			models.MaxDescriptionLen),
		Amount:          income.Sub(expense),
		Currency:        currency,
		BalanceAfter:    balance,
		BalanceCurrency: currency,
		Office:          localeparse.OptionalText(row.Text(schema.CaixaOffice), models.MaxOfficeLen),
		Aux1:            localeparse.Truncate(row.Text(schema.CaixaReference1), models.MaxAuxLen),
		Aux2:            localeparse.Truncate(row.Text(schema.CaixaReference2), models.MaxAuxLen),
		Aux3:            localeparse.Truncate(row.Text(schema.CaixaExtraConcept1), models.MaxAuxLen),
		Aux4:            localeparse.Truncate(row.Text(schema.CaixaExtraConcept2), models.MaxAuxLen),
	}, nil
}

// balance is Saldo (+) minus Saldo (-), or null when neither is filled in.
func (a *Adapter) balance(row models.RawRow) (decimal.NullDecimal, error) {
	plus, err := a.Policy().OptionalAmount(row, schema.CaixaBalancePlus)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	minus, err := a.Policy().OptionalAmount(row, schema.CaixaBalanceMinus)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if !plus.Valid && !minus.Valid {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NewNullDecimal(plus.Decimal.Sub(minus.Decimal)), nil
}
