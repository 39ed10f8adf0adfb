package models

import (
	"strings"
	"time"
)

// Guardian is a parent or tutor linked to one or more students.
type Guardian struct {
	ID        string    `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DisplayName returns the guardian's full name.
func (g *Guardian) DisplayName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}
