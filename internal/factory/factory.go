// Package factory builds bank adapters and the registry the pipeline uses.
package factory

import (
	"fmt"

	"fjacquet/bank-movements/internal/caixabankparser"
	"fjacquet/bank-movements/internal/localeparse"
	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parser"
	"fjacquet/bank-movements/internal/parsererror"
	"fjacquet/bank-movements/internal/santanderparser"
)

// GetAdapterWithLogger returns a new adapter for bank.
func GetAdapterWithLogger(bank models.Bank, logger logging.Logger, policy localeparse.Policy) (parser.BankAdapter, error) {
	switch bank {
	case models.BankCaixabank:
		return caixabankparser.NewAdapter(logger, policy), nil
	case models.BankSantander:
		return santanderparser.NewAdapter(logger, policy), nil
	default:
		return nil, fmt.Errorf("%w: %s", parsererror.ErrUnknownBank, bank)
	}
}

// NewRegistry builds a registry holding an adapter for every supported bank.
func NewRegistry(logger logging.Logger, policy localeparse.Policy) (*parser.Registry, error) {
	adapters := make([]parser.BankAdapter, 0, len(models.SupportedBanks))
	for _, bank := range models.SupportedBanks {
		a, err := GetAdapterWithLogger(bank, logger, policy)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return parser.NewRegistry(adapters...), nil
}
