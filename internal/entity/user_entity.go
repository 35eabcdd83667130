package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID
	Name         string
	Username     string
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
