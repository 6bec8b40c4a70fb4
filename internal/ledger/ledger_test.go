package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/agency-management-api/internal/models"
)

func amounts(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

var d = decimal.RequireFromString

func TestApply_RoundTrip(t *testing.T) {
	total := d("500.00")

	first := Apply(total, models.InvoiceStatusSent, amounts("200.00"), Options{})
	assert.Equal(t, "300.00", first.Balance.StringFixed(2))
	assert.Equal(t, models.InvoiceStatusSent, first.Status)

	second := Apply(total, first.Status, amounts("200.00", "300.00"), Options{})
	assert.True(t, second.Balance.IsZero())
	assert.Equal(t, models.InvoiceStatusPaid, second.Status)
	assert.False(t, second.Overpaid)
}

func TestApply_OverpaymentClamps(t *testing.T) {
	out := Apply(d("100.00"), models.InvoiceStatusSent, amounts("150.00"), Options{})

	assert.Equal(t, "0.00", out.Balance.StringFixed(2))
	assert.False(t, out.Balance.IsNegative())
	assert.Equal(t, models.InvoiceStatusPaid, out.Status)
	assert.True(t, out.Overpaid)
	assert.Equal(t, "150.00", out.Paid.StringFixed(2))
}

func TestApply_TenDimes(t *testing.T) {
	payments := make([]decimal.Decimal, 0, 10)
	status := models.InvoiceStatusSent
	for i := 0; i < 10; i++ {
		payments = append(payments, d("0.10"))
		out := Apply(d("1.00"), status, payments, Options{})
		status = out.Status
		if i < 9 {
			assert.Equal(t, models.InvoiceStatusSent, status)
		}
	}

	final := Apply(d("1.00"), status, payments, Options{})
	assert.True(t, final.Balance.Equal(decimal.Zero))
	assert.Equal(t, "0.00", final.Balance.StringFixed(2))
	assert.Equal(t, models.InvoiceStatusPaid, final.Status)
}

func TestApply_DraftPromotion(t *testing.T) {
	for _, amount := range []string{"0.01", "10", "999.99", "1000", "5000"} {
		out := Apply(d("1000"), models.InvoiceStatusDraft, amounts(amount), Options{})
		assert.NotEqual(t, models.InvoiceStatusDraft, out.Status, amount)
		assert.Contains(t, []models.InvoiceStatus{models.InvoiceStatusSent, models.InvoiceStatusPaid}, out.Status)
	}
}

func TestApply_MarkPartial(t *testing.T) {
	opts := Options{MarkPartial: true}

	assert.Equal(t, models.InvoiceStatusPartial,
		Apply(d("500"), models.InvoiceStatusSent, amounts("200"), opts).Status)
	assert.Equal(t, models.InvoiceStatusPartial,
		Apply(d("500"), models.InvoiceStatusDraft, amounts("1"), opts).Status)
	assert.Equal(t, models.InvoiceStatusPartial,
		Apply(d("500"), models.InvoiceStatusPartial, amounts("200", "100"), opts).Status)
	assert.Equal(t, models.InvoiceStatusOverdue,
		Apply(d("500"), models.InvoiceStatusOverdue, amounts("200"), opts).Status)
	assert.Equal(t, models.InvoiceStatusPaid,
		Apply(d("500"), models.InvoiceStatusOverdue, amounts("200", "300"), opts).Status)
}

func TestApply_OverdueStaysUntilPaid(t *testing.T) {
	out := Apply(d("80"), models.InvoiceStatusOverdue, amounts("20"), Options{})
	assert.Equal(t, models.InvoiceStatusOverdue, out.Status)
	assert.Equal(t, "60.00", out.Balance.StringFixed(2))
}

func TestApply_Deterministic(t *testing.T) {
	history := amounts("12.34", "0.66", "87.00")
	a := Apply(d("250.00"), models.InvoiceStatusSent, history, Options{})
	b := Apply(d("250.00"), models.InvoiceStatusSent, history, Options{})
	assert.Equal(t, a, b)
	assert.Equal(t, "150.00", a.Balance.StringFixed(2))
}

func TestBalance_LargeAmounts(t *testing.T) {
	total := d("9999999999999.99")
	bal := Balance(total, amounts("0.01", "1234567890123.45"))
	assert.Equal(t, "8765432109876.53", bal.StringFixed(2))
}

func TestValidateAmount(t *testing.T) {
	assert.ErrorIs(t, ValidateAmount(d("0")), ErrNonPositiveAmount)
	assert.ErrorIs(t, ValidateAmount(d("-5")), ErrNonPositiveAmount)
	assert.ErrorIs(t, ValidateAmount(d("0.004")), ErrNonPositiveAmount)
	assert.NoError(t, ValidateAmount(d("0.01")))
}

func TestCanAcceptPayment(t *testing.T) {
	assert.NoError(t, CanAcceptPayment(models.InvoiceStatusDraft))
	assert.NoError(t, CanAcceptPayment(models.InvoiceStatusPaid))
	assert.ErrorIs(t, CanAcceptPayment(models.InvoiceStatusVoid), ErrNotPayable)
	assert.ErrorIs(t, CanAcceptPayment(models.InvoiceStatusCancelled), ErrNotPayable)
}
