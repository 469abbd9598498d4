package employee

import "context"

// EmployeeRepository is the read-only employee directory.
type EmployeeRepository interface {
	// GetEmployee returns a non-deleted employee of the company, or ErrEmployeeNotFound.
	GetEmployee(ctx context.Context, companyID string, employeeID string) (Employee, error)
	// ListEmployees returns active employees of a company holding role, ordered by name.
	ListEmployees(ctx context.Context, companyID string, role Role) ([]Employee, error)
	// ListCompanyIDs returns every company that has at least one active employee.
	ListCompanyIDs(ctx context.Context) ([]string, error)
}
