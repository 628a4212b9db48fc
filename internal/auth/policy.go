// Package auth defines the admin role enumeration and the declarative
// operation-to-roles policy table consulted by every mutating usecase.
package auth

// Admin roles. Fixed enumeration, not user-extensible.
const (
	RoleSuperAdmin             = "super-admin"
	RoleViewOnly               = "view-only"
	RoleEventsAdmin            = "events-admin"
	RolePaymentsAdmin          = "payments-admin"
	RolePaperPresentationAdmin = "paper-presentation-admin"
	RoleIdeathonAdmin          = "ideathon-admin"
)

// Operation identifies one guarded back-office operation.
type Operation string

const (
	OpCollegeList       Operation = "college.list"
	OpCollegeCreate     Operation = "college.create"
	OpCollegeMerge      Operation = "college.merge"
	OpUnmappedList      Operation = "college.unmapped"
	OpMergeLogList      Operation = "college.merge_logs"
	OpPassList          Operation = "pass.list"
	OpPassVerify        Operation = "pass.verify"
	OpPassReject        Operation = "pass.reject"
	OpPassGateComplete  Operation = "pass.gate_complete"
	OpPassEditTxn       Operation = "pass.edit_transaction"
	OpTransactionExists Operation = "pass.transaction_exists"
	OpOnspotRegister    Operation = "onspot.register"
)

var allRoles = []string{
	RoleSuperAdmin,
	RoleViewOnly,
	RoleEventsAdmin,
	RolePaymentsAdmin,
	RolePaperPresentationAdmin,
	RoleIdeathonAdmin,
}

// policy is the single source of truth for role checks. Keeping it as one
// table instead of inline allow-lists in each handler keeps role logic
// data-driven.
var policy = map[Operation][]string{
	OpCollegeList:       allRoles,
	OpCollegeCreate:     {RoleSuperAdmin},
	OpCollegeMerge:      {RoleSuperAdmin},
	OpUnmappedList:      {RoleSuperAdmin, RoleViewOnly},
	OpMergeLogList:      {RoleSuperAdmin, RoleViewOnly},
	OpPassList:          {RoleSuperAdmin, RolePaymentsAdmin, RoleViewOnly},
	OpPassVerify:        {RoleSuperAdmin, RolePaymentsAdmin},
	OpPassReject:        {RoleSuperAdmin, RolePaymentsAdmin},
	OpPassGateComplete:  {RoleSuperAdmin, RolePaymentsAdmin},
	OpPassEditTxn:       {RoleSuperAdmin, RolePaymentsAdmin},
	OpTransactionExists: allRoles,
	OpOnspotRegister:    {RoleSuperAdmin, RolePaymentsAdmin},
}

// IsValidRole reports whether role belongs to the fixed enumeration.
func IsValidRole(role string) bool {
	for _, r := range allRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Allowed reports whether the given role may perform op.
func Allowed(op Operation, role string) bool {
	roles, ok := policy[op]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
