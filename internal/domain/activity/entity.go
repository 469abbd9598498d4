package activity

import "time"

type Type string

const (
	TypeSalaryGeneration Type = "SalaryGeneration"
	TypePayrollRun       Type = "PayrollRun"
)

type Activity struct {
	ID          string                 `json:"id"`
	CompanyID   string                 `json:"company_id"`
	Type        Type                   `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}
