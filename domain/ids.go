// Package domain contains the core entities of the hackathon collaboration
// backend: teams, projects, mentors, rooms and messages. No runtime,
// persistence, or transport logic belongs here.
package domain

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns a random 8-hex-character identifier, derived from the first
// four bytes of a UUIDv4.
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:4])
}
