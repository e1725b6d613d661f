package services

import (
	"fmt"
)

// InvalidTransitionError is returned when the requested status change is not
// permitted from the repair's current status.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition repair from %q to %q", e.From, e.To)
}

// ValidationError is returned when a required contextual field is missing or
// invalid for the target status (e.g. failure reason, final price, assignee).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InactiveAssigneeError is returned when the delivered transition names an
// employee that has been deactivated.
type InactiveAssigneeError struct {
	EmployeeID uint
}

func (e *InactiveAssigneeError) Error() string {
	return fmt.Sprintf("employee %d is not active", e.EmployeeID)
}

// ConflictError is returned when the repair's stored status differs from the
// status the caller expected, i.e. someone else transitioned the repair first.
type ConflictError struct {
	Expected string
	Actual   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("repair status is %q, expected %q", e.Actual, e.Expected)
}

// NotFoundError is returned when a referenced row does not exist within the
// acting tenant's workshop.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// StorageError wraps a failure from a delegated persistence call
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
