package soap

import (
	"strings"

	"github.com/google/uuid"
)

// makeSecureID returns a random identifier usable as an xml:id / wsu:Id value.
func makeSecureID(prefixText string) string {
	return prefixText + strings.ReplaceAll(uuid.NewString(), "-", "")
}
