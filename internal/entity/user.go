package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment-axis states of a pass.
const (
	PassStatusPending  = "pending"
	PassStatusVerified = "verified"
	PassStatusRejected = "rejected"
)

// Gate-axis states of a pass. Independent from the payment axis.
const (
	GateStatusNotChecked = "not-checked"
	GateStatusAllowed    = "allowed"
)

// Sources a pass verification can originate from.
const (
	VerificationSourcePortal = "portal"
	VerificationSourceOnspot = "onspot"
)

// Payment id types accepted when verifying a pass.
var ValidPaymentIDTypes = map[string]bool{
	"upi":           true,
	"neft":          true,
	"bank-transfer": true,
	"cash":          true,
}

const (
	MinPassType = 1
	MaxPassType = 4

	MinYear = 1
	MaxYear = 5
)

// Pass is a single payment/registration instance owned by a User.
// It has no independent existence outside its user document.
type Pass struct {
	ID                   primitive.ObjectID
	PassType             int // 1..4
	Status               string
	GateStatus           string
	TransactionNumber    string
	PaymentIDType        string
	VerificationSource   string
	VerifiedBy           string
	VerifiedByEmail      string
	VerifiedDate         *time.Time
	RejectionReason      string
	GateCheckedAt        *time.Time
	GateCheckedByAdminID string
	GateCheckedByPanelID string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// User is a registrant. College holds the free-text snapshot entered at
// registration; CollegeID points at the canonical College record once the
// user has been reconciled. While CollegeID is set, the canonical record is
// the single source of truth for College.
type User struct {
	ID                  primitive.ObjectID
	Name                string
	Email               string
	PhoneNo             string
	Year                int
	Department          string
	College             string
	CollegeID           *primitive.ObjectID
	IsEmailVerified     bool
	OnboardingCompleted bool
	HasVerifiedPass     bool
	Passes              []Pass
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ProfileComplete reports whether the user can pass a gate check.
func (u *User) ProfileComplete() bool {
	if u.OnboardingCompleted {
		return true
	}
	return len(u.MissingFields()) == 0
}

// MissingFields lists the profile fields still required for gate admission.
func (u *User) MissingFields() []string {
	var missing []string
	if u.Name == "" {
		missing = append(missing, "name")
	}
	if u.Email == "" {
		missing = append(missing, "email")
	}
	if u.College == "" {
		missing = append(missing, "college")
	}
	if u.Year == 0 {
		missing = append(missing, "year")
	}
	if u.Department == "" {
		missing = append(missing, "department")
	}
	if u.PhoneNo == "" {
		missing = append(missing, "phoneNo")
	}
	return missing
}

// PassByID returns the embedded pass with the given id, or nil.
func (u *User) PassByID(passID primitive.ObjectID) *Pass {
	for i := range u.Passes {
		if u.Passes[i].ID == passID {
			return &u.Passes[i]
		}
	}
	return nil
}
