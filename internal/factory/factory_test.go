package factory_test

import (
	"testing"

	"fjacquet/bank-movements/internal/factory"
	"fjacquet/bank-movements/internal/localeparse"
	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAdapterWithLogger(t *testing.T) {
	tests := []struct {
		name        string
		bank        models.Bank
		expectError bool
	}{
		{name: "Caixabank adapter", bank: models.BankCaixabank},
		{name: "Santander adapter", bank: models.BankSantander},
		{name: "Unknown bank", bank: "bbva", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logging.NewMockLogger()
			a, err := factory.GetAdapterWithLogger(tt.bank, logger, localeparse.PolicyStrict)

			if tt.expectError {
				assert.ErrorIs(t, err, parsererror.ErrUnknownBank)
				assert.Nil(t, a)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bank, a.Bank())
		})
	}
}

func TestNewRegistry(t *testing.T) {
	r, err := factory.NewRegistry(logging.NewMockLogger(), localeparse.PolicyLenient)
	require.NoError(t, err)
	assert.Equal(t, models.SupportedBanks, r.Banks())
}
