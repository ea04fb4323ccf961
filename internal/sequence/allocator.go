// Package sequence allocates human-readable sequential entity numbers
// ("P001", "C042"). The allocator is injectable so services stay
// deterministic in tests, and implementations guarantee uniqueness
// under concurrent creation.
package sequence

import (
	"context"
	"fmt"
)

// Allocator hands out the next number for an entity type.
type Allocator interface {
	Next(ctx context.Context, entityType string) (string, error)
}

// Entity types with reserved prefixes.
const (
	EntityPolicy = "POLICY"
	EntityClaim  = "CLAIM"
)

var prefixes = map[string]string{
	EntityPolicy: "P",
	EntityClaim:  "C",
}

// Format renders a counter value as its display number. Values grow past
// three digits without truncation ("C1042").
func Format(entityType string, value int64) string {
	prefix, ok := prefixes[entityType]
	if !ok {
		prefix = entityType + "-"
	}
	return fmt.Sprintf("%s%03d", prefix, value)
}
