package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/orderdesk/pkg/money"
)

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"0":          "0,00",
		"12.5":       "12,50",
		"999.999":    "1.000,00",
		"1234.5":     "1.234,50",
		"1234567.89": "1.234.567,89",
		"-42.1":      "-42,10",
		"-0.001":     "0,00",

		"123456789012345.67":      "123.456.789.012.345,67",
		"12345678901234567890.05": "12.345.678.901.234.567.890,05",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, money.Format(decimal.RequireFromString(in)))
		})
	}
}

func TestParse(t *testing.T) {
	d, err := money.Parse("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = money.Parse("19.99")
	require.NoError(t, err)
	assert.Equal(t, "19.99", money.String(d))

	_, err = money.Parse("abc")
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	assert.Equal(t, "10.00", money.String(decimal.NewFromInt(10)))
	assert.Equal(t, "0.33", money.String(decimal.RequireFromString("0.333")))
}
