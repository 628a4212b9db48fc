package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationChecklist records the physical checks performed at the gate.
type VerificationChecklist struct {
	IDChecked       bool
	PaymentChecked  bool
	WristbandIssued bool
}

// VerificationSession is an immutable audit record of a completed gate
// verification. User and college fields are snapshots taken at verification
// time so later edits to the live records do not rewrite history.
type VerificationSession struct {
	ID                primitive.ObjectID
	PassID            primitive.ObjectID
	UserID            primitive.ObjectID
	UserName          string
	UserEmail         string
	UserPhoneNo       string
	Year              int
	Department        string
	CollegeName       string
	PassType          int
	TransactionNumber string
	AdminID           string
	AdminEmail        string
	PanelID           string
	Checklist         VerificationChecklist
	CreatedAt         time.Time
}
