package services

// Tenant identifies who is acting and which workshop the operation is scoped
// to. Every lifecycle and payroll operation takes one explicitly; rows outside
// the tenant's workshop are treated as not found.
type Tenant struct {
	WorkshopID uint
	ActorID    uint // user id of the acting login
	Role       string
}

// Assignee says who performed a delivered repair: the workshop owner (no
// commission) or a specific employee (commission earned). The zero value is
// neither and fails validation.
type Assignee struct {
	kind       assigneeKind
	employeeID uint
}

type assigneeKind int

const (
	assigneeNone assigneeKind = iota
	assigneeOwner
	assigneeEmployee
)

// OwnerAssignee returns an assignee meaning the workshop owner did the repair
func OwnerAssignee() Assignee {
	return Assignee{kind: assigneeOwner}
}

// EmployeeAssignee returns an assignee naming a specific employee
func EmployeeAssignee(employeeID uint) Assignee {
	return Assignee{kind: assigneeEmployee, employeeID: employeeID}
}

// IsOwner reports whether the owner performed the repair
func (a Assignee) IsOwner() bool {
	return a.kind == assigneeOwner
}

// Employee returns the employee id and whether a specific employee was named
func (a Assignee) Employee() (uint, bool) {
	return a.employeeID, a.kind == assigneeEmployee
}

// IsZero reports whether no assignee was supplied
func (a Assignee) IsZero() bool {
	return a.kind == assigneeNone
}
