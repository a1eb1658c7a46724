// Package codegen produces opaque discount code values.
package codegen

import (
	"strings"

	"github.com/google/uuid"
)

// CodeLength is the fixed length of every generated code.
const CodeLength = 10

// Generate returns a new 10 character discount code. Two independent
// random UUIDs contribute 8 and 2 leading hex characters, 40 random
// bits per call in total; collisions across a pool are practically
// impossible. Safe for concurrent use, no state.
func Generate() string {
	first := strings.ToUpper(uuid.NewString())
	second := strings.ToUpper(uuid.NewString())
	return first[:8] + second[:2]
}

// GenerateBatch returns n freshly generated codes.
func GenerateBatch(n int) []string {
	codes := make([]string, n)
	for i := range codes {
		codes[i] = Generate()
	}
	return codes
}
