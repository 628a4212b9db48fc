package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin is a back-office operator account.
type Admin struct {
	ID        primitive.ObjectID
	Name      string
	Email     string
	Password  string // bcrypt hash
	Role      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor is the authenticated identity attached to every mutating request.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  string
}
