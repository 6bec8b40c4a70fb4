package handlers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/constants"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/money"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		apierrors.RegisterJSONFieldNames(v)
	}
}

// parseIDParam reads a numeric path parameter, responding 400 when it is malformed.
func parseIDParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return id, true
}

// parseDate parses an optional YYYY-MM-DD value as a UTC date.
func parseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(constants.DateLayout, *value, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseDateField parses an optional date and responds 422 naming the field on failure.
func parseDateField(c *gin.Context, field string, value *string) (*time.Time, bool) {
	t, err := parseDate(value)
	if err != nil {
		apierrors.UnprocessableEntity(c, "", map[string]string{field: "must be a date in YYYY-MM-DD format"})
		return nil, false
	}
	return t, true
}

// isClear reports whether a nullable field was sent as an explicit empty string.
func isClear(value *string) bool {
	return value != nil && *value == ""
}

func fieldError(c *gin.Context, field string, err error) {
	apierrors.UnprocessableEntity(c, err.Error(), map[string]string{field: err.Error()})
}

// decimalInput holds a decimal sent either as a JSON string ("12.50") or a JSON
// number (12.50). The text is kept as sent so no precision is lost before parsing.
type decimalInput string

func (d *decimalInput) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = decimalInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*d = decimalInput(n)
	return nil
}

// isClearDecimal reports whether a nullable decimal was sent as an explicit empty string.
func isClearDecimal(value *decimalInput) bool {
	return value != nil && *value == ""
}

// parseAmountField parses an optional decimal and responds 422 naming the field on failure.
func parseAmountField(c *gin.Context, field string, value *decimalInput) (*decimal.Decimal, bool) {
	if value == nil || *value == "" {
		return nil, true
	}
	d, err := money.ParseAmount(string(*value))
	if err != nil {
		apierrors.UnprocessableEntity(c, "", map[string]string{field: "must be a decimal number"})
		return nil, false
	}
	return &d, true
}
