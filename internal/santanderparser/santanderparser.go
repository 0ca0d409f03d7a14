// Package santanderparser maps Santander statement rows to movements.
package santanderparser

import (
	"fjacquet/bank-movements/internal/localeparse"
	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parser"
	"fjacquet/bank-movements/internal/parsererror"
	"fjacquet/bank-movements/internal/schema"
)

// Adapter implements parser.BankAdapter for Santander exports.
type Adapter struct {
	parser.BaseParser
}

// NewAdapter creates a Santander adapter.
func NewAdapter(logger logging.Logger, policy localeparse.Policy) *Adapter {
	if logger != nil {
		logger = logger.WithField(logging.FieldBank, string(models.BankSantander))
	}
	return &Adapter{BaseParser: parser.NewBaseParser(logger, policy)}
}

// Bank implements parser.BankAdapter.
func (a *Adapter) Bank() models.Bank {
	return models.BankSantander
}

// Transform implements parser.BankAdapter.
func (a *Adapter) Transform(rows []models.RawRow) ([]models.Movement, []parsererror.RowError) {
	return a.MapRows(models.BankSantander, rows, a.mapRow)
}

func (a *Adapter) mapRow(row models.RawRow) (*models.Movement, error) {
	policy := a.Policy()

	date, err := policy.Date(row, schema.SantanderOperationDate)
	if err != nil {
		return nil, err
	}
	valueDate, err := policy.Date(row, schema.SantanderValueDate)
	if err != nil {
		return nil, err
	}
	amount, err := policy.Amount(row, schema.SantanderAmount)
	if err != nil {
		return nil, err
	}
	balance, err := policy.OptionalAmount(row, schema.SantanderBalance)
	if err != nil {
		return nil, err
	}

	currency, err := policy.Currency(row, schema.SantanderCurrency)
	if err != nil {
		return nil, err
	}

	// Santander exports carry no branch, so Office stays nil.
	return &models.Movement{
		Bank:            models.BankSantander,
		Date:            date,
		ValueDate:       valueDate,
		Description:     localeparse.Truncate(row.Text(schema.SantanderConcept), models.MaxDescriptionLen),
		Amount:          amount,
		Currency:        currency,
		BalanceAfter:    balance,
		BalanceCurrency: currency,
		Aux1:            localeparse.Truncate(row.Text(schema.SantanderReference1), models.MaxAuxLen),
		Aux2:            localeparse.Truncate(row.Text(schema.SantanderReference2), models.MaxAuxLen),
		Aux3:            localeparse.Truncate(row.Text(schema.SantanderAdditional), models.MaxAuxLen),
	}, nil
}
