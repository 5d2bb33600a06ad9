package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is an authentication identity. Credential storage and verification
// live in the user-store component; this service only counts rows.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk" json:"id"`
	Email        string    `bun:"email,unique,notnull" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
}
