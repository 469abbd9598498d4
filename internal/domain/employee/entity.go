package employee

type Role string

const (
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Employee is the directory view of an employee used by payroll: identity
// plus the organisational placement reports group by.
type Employee struct {
	ID           string  `json:"id"`
	CompanyID    string  `json:"company_id"`
	FullName     string  `json:"full_name"`
	DepartmentID *string `json:"department_id,omitempty"`
	BranchID     *string `json:"branch_id,omitempty"`
	Role         Role    `json:"role"`
}
