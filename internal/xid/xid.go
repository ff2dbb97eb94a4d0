package xid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New returns a prefixed random identifier, e.g. "prd-3f2a9c1e4b7d".
func New(prefix string) string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
	}
	compact := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("%s-%s", prefix, compact[:16])
}
