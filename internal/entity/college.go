package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// College is a canonical institution record. Name uniqueness is enforced
// case-insensitively at write time, not by a hard database constraint.
type College struct {
	ID        primitive.ObjectID
	Name      string
	City      string
	State     string
	Approved  bool
	CreatedBy string // email of the creating admin
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CollegeMergeLog is an append-only audit record of one bulk reassignment.
// Never mutated or deleted.
type CollegeMergeLog struct {
	ID             primitive.ObjectID
	CollegeID      primitive.ObjectID
	CollegeName    string
	NormalizedKeys []string
	UserIDs        []primitive.ObjectID // legacy explicit-id path only
	ModifiedCount  int64
	MergedBy       string // email of the acting admin
	CreatedAt      time.Time
}

// UnmappedGroup is one row of the unmapped-colleges report: all users with
// no canonical college whose free-text name reduces to the same key.
type UnmappedGroup struct {
	NormalizedKey string
	DisplayName   string
	TotalUsers    int64
	UserIDs       []primitive.ObjectID
	Variants      []string
}
