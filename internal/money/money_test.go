package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
		wantErr  error
	}{
		{name: "whole rand", amount: "25.00", currency: "ZAR", want: 2500},
		{name: "no fraction", amount: "25", currency: "ZAR", want: 2500},
		{name: "one decimal", amount: "25.5", currency: "ZAR", want: 2550},
		{name: "zero", amount: "0", currency: "ZAR", want: 0},
		{name: "unknown currency defaults to 2", amount: "10.99", currency: "XXX", want: 1099},
		{name: "scientific notation", amount: "2.5e1", currency: "ZAR", want: 2500},
		{name: "negative", amount: "-1.00", currency: "ZAR", wantErr: ErrInvalidAmount},
		{name: "not a number", amount: "abc", currency: "ZAR", wantErr: ErrInvalidAmount},
		{name: "empty", amount: "", currency: "ZAR", wantErr: ErrInvalidAmount},
		{name: "excess decimals", amount: "25.001", currency: "ZAR", wantErr: ErrTooManyDecimals},
		{name: "trailing zeros past exponent", amount: "25.000", currency: "ZAR", wantErr: ErrTooManyDecimals},
		{name: "too large", amount: "100000000000000", currency: "ZAR", wantErr: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinorUnits(tt.amount, tt.currency)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMinorUnits(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		want    int64
		wantErr error
	}{
		{name: "plain integer", amount: "2500", want: 2500},
		{name: "scientific integer", amount: "2.5e3", want: 2500},
		{name: "fractional", amount: "25.50", wantErr: ErrNotMinorInteger},
		{name: "integral with decimal point", amount: "2500.0", wantErr: ErrNotMinorInteger},
		{name: "negative", amount: "-2500", wantErr: ErrInvalidAmount},
		{name: "not a number", amount: "cents", wantErr: ErrInvalidAmount},
		{name: "too large", amount: "9007199254740992", wantErr: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMinorUnits(tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromMinorUnits(t *testing.T) {
	assert.Equal(t, 25.0, FromMinorUnits(2500, "ZAR"))
	assert.Equal(t, 25.5, FromMinorUnits(2550, "ZAR"))
	assert.Equal(t, 0.0, FromMinorUnits(0, "ZAR"))
}

func TestRoundTrip(t *testing.T) {
	for _, amount := range []string{"25.00", "0.01", "199.99", "1000"} {
		minor, err := ToMinorUnits(amount, "ZAR")
		require.NoError(t, err)

		major := FromMinorUnits(minor, "ZAR")
		formatted, err := FormatMajor(amount)
		require.NoError(t, err)

		back, err := ToMinorUnits(formatted, "ZAR")
		require.NoError(t, err)
		assert.Equal(t, minor, back, "round-trip for %s", amount)
		assert.InDelta(t, major, FromMinorUnits(back, "ZAR"), 1e-9)
	}
}

func TestFormatMajor(t *testing.T) {
	got, err := FormatMajor("100")
	require.NoError(t, err)
	assert.Equal(t, "100.00", got)

	got, err = FormatMajor("249.99")
	require.NoError(t, err)
	assert.Equal(t, "249.99", got)

	_, err = FormatMajor("not-money")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormatMinorAsMajor(t *testing.T) {
	assert.Equal(t, "200.00", FormatMinorAsMajor(20000, "ZAR"))
	assert.Equal(t, "0.05", FormatMinorAsMajor(5, "ZAR"))
}
