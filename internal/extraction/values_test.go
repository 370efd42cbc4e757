package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name string
		text string
		want Values
	}{
		{
			name: "credit number",
			text: "el crédito 5800325002956151 está en estado 71",
			want: Values{Credit: "5800325002956151"},
		},
		{
			name: "labeled id",
			text: "la comisión con ID: 123456 quedó mal",
			want: Values{GenericID: "123456"},
		},
		{
			name: "domain keyword id",
			text: "revisar comisión 987654 del vendedor",
			want: Values{GenericID: "987654"},
		},
		{
			name: "national identifier",
			text: "vendedor con CC: 1020304050",
			want: Values{NationalID: "1020304050"},
		},
		{
			name: "nit label",
			text: "NIT 900123456 sin banco",
			want: Values{NationalID: "900123456"},
		},
		{
			name: "amounts keep order and strip separators",
			text: "cambiar de $1,200,000 a $ 1.500.000",
			want: Values{Amounts: []string{"1200000", "1500000"}},
		},
		{
			name: "date day-month-year",
			text: "aprobado el 15/03/2024",
			want: Values{Date: "15/03/2024"},
		},
		{
			name: "date with month abbreviation",
			text: "pago del 3-ene-24 pendiente",
			want: Values{Date: "3-ene-24"},
		},
		{
			name: "invoice reference",
			text: "la FACTURA: FV-20393 no aparece",
			want: Values{Reference: "FV-20393"},
		},
		{
			name: "no matches yields zero values",
			text: "no entiendo qué pasó",
			want: Values{},
		},
		{
			name: "multiple categories",
			text: "crédito 1234567890123, CC: 555666, valor $300,000 del 01/02/2024",
			want: Values{
				Credit:     "1234567890123",
				NationalID: "555666",
				Amounts:    []string{"300000"},
				Date:       "01/02/2024",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}

func TestExtractor_Idempotent(t *testing.T) {
	e := NewExtractor()
	text := "crédito 5800325002956151, comisión ID: 123456, $500,000 y $1.000.000 el 15/03/2024"

	first := e.Extract(text)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, e.Extract(text))
	}
}

func TestValues_Empty(t *testing.T) {
	assert.True(t, Values{}.Empty())
	assert.False(t, Values{Credit: "1234567890123"}.Empty())
	assert.False(t, Values{Amounts: []string{"100"}}.Empty())
}
