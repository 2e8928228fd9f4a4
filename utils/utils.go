package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateTransactionID creates a unique payment transaction id.
// Kept short because hosted gateways cap tran_id length.
func GenerateTransactionID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TXN" + strings.ToUpper(raw[:20])
}

// FormatEnrollmentNo builds the human-facing enrollment number, e.g. MA-62026001
func FormatEnrollmentNo(courseCode string, batchNumber, year, sequence int) string {
	return fmt.Sprintf("%s-%d%d%03d", courseCode, batchNumber, year, sequence)
}
