package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier string. Version 7 ids sort by creation
// time, which keeps ledger entries readable in insertion order.
func GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
