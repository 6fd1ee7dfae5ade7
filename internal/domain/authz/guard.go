package authz

// Role represents an actor role resolved from the bearer token
type Role string

const (
	RoleAdmin               Role = "ADMIN"
	RoleInspector           Role = "INSPECTOR"
	RoleSupervisor          Role = "SUPERVISOR"
	RoleFinance             Role = "FINANCE"
	RoleMaintenanceEngineer Role = "MAINTENANCE_ENGINEER"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleInspector, RoleSupervisor, RoleFinance, RoleMaintenanceEngineer:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Action represents a command a caller may attempt against the engine
type Action string

const (
	ActionSubmitIncident        Action = "SUBMIT_INCIDENT"
	ActionInspectIncident       Action = "INSPECT_INCIDENT"
	ActionSupervisorReview      Action = "SUPERVISOR_REVIEW_INCIDENT"
	ActionFinanceReview         Action = "FINANCE_REVIEW_INCIDENT"
	ActionStartRepair           Action = "START_REPAIR"
	ActionCompleteRepair        Action = "COMPLETE_REPAIR"
	ActionUpdateClaimStatus     Action = "UPDATE_CLAIM_STATUS"
	ActionSubmitMaterialRequest Action = "SUBMIT_MATERIAL_REQUEST"
	ActionApproveMaterial       Action = "APPROVE_MATERIAL_REQUEST"
	ActionRejectMaterial        Action = "REJECT_MATERIAL_REQUEST"
	ActionReceiveMaterial       Action = "RECEIVE_MATERIAL_REQUEST"
	ActionApprovePurchase       Action = "APPROVE_PURCHASE"
	ActionRejectPurchase        Action = "REJECT_PURCHASE"
	ActionOrderPurchase         Action = "ORDER_PURCHASE"
	ActionMarkPurchaseArrived   Action = "MARK_PURCHASE_ARRIVED"
	ActionDeliverPurchase       Action = "DELIVER_PURCHASE"
	ActionManageInventory       Action = "MANAGE_INVENTORY"
)

// permissions maps each action to the non-admin roles allowed to perform it.
// ADMIN is a superset of every role and is never listed explicitly.
var permissions = map[Action][]Role{
	ActionSubmitIncident:        {RoleInspector, RoleSupervisor, RoleFinance, RoleMaintenanceEngineer},
	ActionInspectIncident:       {RoleInspector},
	ActionSupervisorReview:      {RoleSupervisor},
	ActionFinanceReview:         {RoleFinance},
	ActionStartRepair:           {RoleSupervisor, RoleInspector},
	ActionCompleteRepair:        {RoleSupervisor, RoleInspector},
	ActionUpdateClaimStatus:     {RoleFinance},
	ActionSubmitMaterialRequest: {RoleMaintenanceEngineer, RoleSupervisor, RoleInspector},
	ActionApproveMaterial:       {},
	ActionRejectMaterial:        {},
	ActionReceiveMaterial:       {},
	ActionApprovePurchase:       {},
	ActionRejectPurchase:        {},
	ActionOrderPurchase:         {},
	ActionMarkPurchaseArrived:   {},
	ActionDeliverPurchase:       {},
	ActionManageInventory:       {},
}

// Guard resolves whether a role may perform an action. It is pure and
// stateless: same inputs always yield the same answer, no I/O, no side
// effects. Callers must surface PERMISSION_DENIED on refusal and perform
// no state change.
type Guard struct{}

// NewGuard creates a new authorization guard
func NewGuard() *Guard {
	return &Guard{}
}

// CanPerform returns true if the role is permitted to perform the action.
// Unknown roles and unknown actions are always denied.
func (g *Guard) CanPerform(role Role, action Action) bool {
	if !role.IsValid() {
		return false
	}
	if role == RoleAdmin {
		_, known := permissions[action]
		return known
	}
	allowed, known := permissions[action]
	if !known {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
