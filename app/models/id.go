package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewID generates a short unique record ID like "cust_a1b2c3d4e5f6".
func NewID(prefix string) string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("id generation: %v", err))
	}
	return prefix + "_" + hex.EncodeToString(b)
}
