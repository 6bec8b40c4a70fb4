package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// InvoiceNumberPrefix returns the per-year prefix, e.g. "INV-2026-".
func InvoiceNumberPrefix(base string, year int) string {
	return fmt.Sprintf("%s-%d-", base, year)
}

// NextInvoiceNumber returns the number following latest within the year prefix.
// An empty latest starts the sequence at 0001.
func NextInvoiceNumber(prefix, latest string) (string, error) {
	seq := 0
	if latest != "" {
		if !strings.HasPrefix(latest, prefix) {
			return "", fmt.Errorf("invoice number %q does not match prefix %q", latest, prefix)
		}
		n, err := strconv.Atoi(strings.TrimPrefix(latest, prefix))
		if err != nil {
			return "", fmt.Errorf("invalid invoice number %q: %w", latest, err)
		}
		seq = n
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}
