// Package parser defines the bank adapter contract, filename based bank
// detection and the adapter registry.
package parser

import (
	"fmt"
	"strings"

	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"
)

// BankAdapter maps schema-validated raw rows of one bank into canonical
// movements. Transform never fails as a whole: rows it cannot map are
// dropped and reported as RowErrors. It must be pure, so the same rows
// always yield the same movements.
type BankAdapter interface {
	Bank() models.Bank
	Transform(rows []models.RawRow) ([]models.Movement, []parsererror.RowError)
}

// DetectBank infers the issuing bank from a filename by case-insensitive
// substring match.
func DetectBank(filename string) (models.Bank, error) {
	lower := strings.ToLower(filename)
	for _, bank := range models.SupportedBanks {
		if strings.Contains(lower, string(bank)) {
			return bank, nil
		}
	}
	return "", fmt.Errorf("%w: %s", parsererror.ErrUnknownBank, filename)
}

// Registry resolves the adapter for a bank.
type Registry struct {
	adapters map[models.Bank]BankAdapter
}

// NewRegistry indexes adapters by the bank they serve. A later adapter for
// the same bank replaces an earlier one.
func NewRegistry(adapters ...BankAdapter) *Registry {
	r := &Registry{adapters: make(map[models.Bank]BankAdapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Bank()] = a
	}
	return r
}

// Get returns the adapter for bank.
func (r *Registry) Get(bank models.Bank) (BankAdapter, error) {
	a, ok := r.adapters[bank]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for %s", parsererror.ErrUnknownBank, bank)
	}
	return a, nil
}

// Banks lists the registered banks in detection order.
func (r *Registry) Banks() []models.Bank {
	var banks []models.Bank
	for _, b := range models.SupportedBanks {
		if _, ok := r.adapters[b]; ok {
			banks = append(banks, b)
		}
	}
	return banks
}
