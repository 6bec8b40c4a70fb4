package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSum_TenDimesIsExactlyOne(t *testing.T) {
	values := make([]decimal.Decimal, 10)
	for i := range values {
		values[i] = d("0.10")
	}

	total := Sum(values...)

	assert.True(t, total.Equal(d("1.00")))
	assert.True(t, IsZero2(d("1.00").Sub(total)))
}

func TestRound2_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "2.68", Format(Round2(d("2.675"))))
	assert.Equal(t, "-2.68", Format(Round2(d("-2.675"))))
	assert.Equal(t, "0.00", Format(Round2(d("0.004"))))
}

func TestClampZero(t *testing.T) {
	assert.True(t, ClampZero(d("-100")).IsZero())
	assert.True(t, ClampZero(d("5.5")).Equal(d("5.5")))
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name  string
		part  string
		whole string
		want  int
	}{
		{"quarter", "1", "4", 25},
		{"one third rounds down", "1", "3", 33},
		{"two thirds rounds up", "2", "3", 67},
		{"half rounds away from zero", "1", "200", 1},
		{"zero whole", "3", "0", 0},
		{"negative whole", "3", "-1", 0},
		{"over one hundred clamps", "5", "4", 100},
		{"complete", "3", "3", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percent(d(tt.part), d(tt.whole)))
		})
	}
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, "33.33", Format(LineTotal(d("3"), d("11.111"))))
	assert.Equal(t, "1.50", Format(LineTotal(d("0.5"), d("3"))))
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount(" 199.999 ")
	require.NoError(t, err)
	assert.Equal(t, "200.00", Format(got))

	_, err = ParseAmount("ten")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
