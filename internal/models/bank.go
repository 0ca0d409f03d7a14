package models

import (
	"fmt"
	"strings"
)

// Bank identifies the institution a statement was exported from.
type Bank string

const (
	BankCaixabank Bank = "caixabank"
	BankSantander Bank = "santander"
)

// SupportedBanks lists every bank with an adapter, in detection order.
var SupportedBanks = []Bank{BankSantander, BankCaixabank}

// ParseBank converts a case-insensitive bank name into a Bank.
func ParseBank(s string) (Bank, error) {
	b := Bank(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SupportedBanks {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("unsupported bank %q", s)
}

// Label is the human-readable bank name as it appears in exported filenames.
func (b Bank) Label() string {
	switch b {
	case BankCaixabank:
		return "Caixabank"
	case BankSantander:
		return "Santander"
	default:
		return string(b)
	}
}
