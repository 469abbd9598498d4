package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/activity"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/expense"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// fakePayrollRepo is an in-memory PayrollRepository. Salary records are
// unique per (company, employee, period) like the real table.
type fakePayrollRepo struct {
	mu       sync.Mutex
	seq      int
	heads    map[string]payroll.SalaryHead
	brackets map[string]payroll.TaxBracket
	profiles map[string]payroll.PayProfile
	records  map[string]payroll.SalaryRecord

	// skipExistsCheck makes SalaryRecordExists always report false, simulating
	// a concurrent insert between the check and the write.
	skipExistsCheck bool
	createRecordErr error
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{
		heads:    map[string]payroll.SalaryHead{},
		brackets: map[string]payroll.TaxBracket{},
		profiles: map[string]payroll.PayProfile{},
		records:  map[string]payroll.SalaryRecord{},
	}
}

func (f *fakePayrollRepo) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func recordKey(companyID, employeeID, period string) string {
	return companyID + "/" + employeeID + "/" + period
}

func (f *fakePayrollRepo) CreateSalaryHead(ctx context.Context, head payroll.SalaryHead) (payroll.SalaryHead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.heads {
		if h.CompanyID != head.CompanyID {
			continue
		}
		if h.ShortName == head.ShortName {
			return payroll.SalaryHead{}, payroll.ErrSalaryHeadShortNameExists
		}
		if h.IsBasisHead && head.IsBasisHead {
			return payroll.SalaryHead{}, payroll.ErrBasisHeadExists
		}
	}
	if head.ID == "" {
		head.ID = f.nextID("head")
	}
	f.heads[head.ID] = head
	return head, nil
}

func (f *fakePayrollRepo) GetSalaryHeadByID(ctx context.Context, id string, companyID string) (payroll.SalaryHead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.heads[id]
	if !ok || h.CompanyID != companyID {
		return payroll.SalaryHead{}, payroll.ErrSalaryHeadNotFound
	}
	return h, nil
}

func (f *fakePayrollRepo) ListSalaryHeads(ctx context.Context, companyID string) ([]payroll.SalaryHead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var heads []payroll.SalaryHead
	for _, h := range f.heads {
		if h.CompanyID == companyID {
			heads = append(heads, h)
		}
	}
	sort.Slice(heads, func(i, j int) bool { return heads[i].ShortName < heads[j].ShortName })
	return heads, nil
}

func (f *fakePayrollRepo) UpdateSalaryHead(ctx context.Context, head payroll.SalaryHead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.heads[head.ID]; !ok {
		return payroll.ErrSalaryHeadNotFound
	}
	f.heads[head.ID] = head
	return nil
}

func (f *fakePayrollRepo) DeleteSalaryHead(ctx context.Context, id string, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h, ok := f.heads[id]; !ok || h.CompanyID != companyID {
		return payroll.ErrSalaryHeadNotFound
	}
	delete(f.heads, id)
	return nil
}

func (f *fakePayrollRepo) CreateTaxBracket(ctx context.Context, bracket payroll.TaxBracket) (payroll.TaxBracket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bracket.ID == "" {
		bracket.ID = f.nextID("bracket")
	}
	f.brackets[bracket.ID] = bracket
	return bracket, nil
}

func (f *fakePayrollRepo) GetTaxBracketByID(ctx context.Context, id string, companyID string) (payroll.TaxBracket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.brackets[id]
	if !ok || b.CompanyID != companyID {
		return payroll.TaxBracket{}, payroll.ErrTaxBracketNotFound
	}
	return b, nil
}

func (f *fakePayrollRepo) ListTaxBrackets(ctx context.Context, companyID string) ([]payroll.TaxBracket, error) {
	return f.ListTaxBracketsEffectiveAt(ctx, companyID, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
}

func (f *fakePayrollRepo) ListTaxBracketsEffectiveAt(ctx context.Context, companyID string, date time.Time) ([]payroll.TaxBracket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var brackets []payroll.TaxBracket
	for _, b := range f.brackets {
		if b.CompanyID == companyID && !b.EffectiveFrom.After(date) {
			brackets = append(brackets, b)
		}
	}
	return brackets, nil
}

func (f *fakePayrollRepo) UpdateTaxBracket(ctx context.Context, bracket payroll.TaxBracket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.brackets[bracket.ID] = bracket
	return nil
}

func (f *fakePayrollRepo) DeleteTaxBracket(ctx context.Context, id string, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.brackets, id)
	return nil
}

func (f *fakePayrollRepo) UpsertPayProfile(ctx context.Context, profile payroll.PayProfile) (payroll.PayProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := profile.CompanyID + "/" + profile.EmployeeID
	if existing, ok := f.profiles[key]; ok {
		profile.ID = existing.ID
	} else {
		profile.ID = f.nextID("profile")
	}
	f.profiles[key] = profile
	return profile, nil
}

func (f *fakePayrollRepo) GetPayProfile(ctx context.Context, companyID string, employeeID string) (payroll.PayProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[companyID+"/"+employeeID]
	if !ok {
		return payroll.PayProfile{}, payroll.ErrPayProfileNotFound
	}
	return p, nil
}

func (f *fakePayrollRepo) ListPayProfiles(ctx context.Context, companyID string) ([]payroll.PayProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []payroll.PayProfile{}
	for _, p := range f.profiles {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (f *fakePayrollRepo) DeletePayProfile(ctx context.Context, companyID string, employeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := companyID + "/" + employeeID
	if _, ok := f.profiles[key]; !ok {
		return payroll.ErrPayProfileNotFound
	}
	delete(f.profiles, key)
	return nil
}

func (f *fakePayrollRepo) SalaryRecordExists(ctx context.Context, companyID string, employeeID string, period string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.skipExistsCheck {
		return false, nil
	}
	_, ok := f.records[recordKey(companyID, employeeID, period)]
	return ok, nil
}

func (f *fakePayrollRepo) CreateSalaryRecord(ctx context.Context, record payroll.SalaryRecord) (payroll.SalaryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createRecordErr != nil {
		return payroll.SalaryRecord{}, f.createRecordErr
	}
	key := recordKey(record.CompanyID, record.EmployeeID, record.Period)
	if _, ok := f.records[key]; ok {
		return payroll.SalaryRecord{}, payroll.ErrSalaryRecordAlreadyExists
	}
	record.ID = f.nextID("record")
	record.CreatedAt = time.Now()
	f.records[key] = record
	return record, nil
}

func (f *fakePayrollRepo) GetSalaryRecordByID(ctx context.Context, id string, companyID string) (payroll.SalaryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id && r.CompanyID == companyID {
			return r, nil
		}
	}
	return payroll.SalaryRecord{}, payroll.ErrSalaryRecordNotFound
}

func (f *fakePayrollRepo) ListSalaryRecords(ctx context.Context, companyID string, filter payroll.SalaryRecordFilter) ([]payroll.SalaryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []payroll.SalaryRecord
	for _, r := range f.records {
		if r.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Period != nil && r.Period != *filter.Period {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func (f *fakePayrollRepo) SumGrossSalary(ctx context.Context, companyID string, period string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := decimal.Zero
	for _, r := range f.records {
		if r.CompanyID == companyID && r.Period == period {
			total = total.Add(r.GrossSalary)
		}
	}
	return total, nil
}

func (f *fakePayrollRepo) recordCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeEmployeeRepo struct {
	employees []employee.Employee
	err       error
}

func (f *fakeEmployeeRepo) GetEmployee(ctx context.Context, companyID string, employeeID string) (employee.Employee, error) {
	if f.err != nil {
		return employee.Employee{}, f.err
	}
	for _, e := range f.employees {
		if e.ID == employeeID && e.CompanyID == companyID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) ListEmployees(ctx context.Context, companyID string, role employee.Role) ([]employee.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []employee.Employee
	for _, e := range f.employees {
		if e.CompanyID == companyID && e.Role == role {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepo) ListCompanyIDs(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	for _, e := range f.employees {
		if !seen[e.CompanyID] {
			seen[e.CompanyID] = true
			ids = append(ids, e.CompanyID)
		}
	}
	return ids, f.err
}

type fakeExpenseRepo struct {
	entries   map[string]expense.Expense
	upserts   int
	upsertErr error
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{entries: map[string]expense.Expense{}}
}

func (f *fakeExpenseRepo) FindSalaryExpense(ctx context.Context, companyID string, period string) (expense.Expense, error) {
	e, ok := f.entries[companyID+"/"+period]
	if !ok {
		return expense.Expense{}, expense.ErrExpenseNotFound
	}
	return e, nil
}

func (f *fakeExpenseRepo) UpsertSalaryExpense(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	if f.upsertErr != nil {
		return expense.Expense{}, f.upsertErr
	}
	f.upserts++
	key := e.CompanyID + "/" + e.Period
	if existing, ok := f.entries[key]; ok {
		e.ID = existing.ID
	} else {
		e.ID = fmt.Sprintf("expense-%d", len(f.entries)+1)
	}
	f.entries[key] = e
	return e, nil
}

type fakeRecorder struct {
	activities []activity.Activity
}

func (f *fakeRecorder) Record(ctx context.Context, a activity.Activity) {
	f.activities = append(f.activities, a)
}

type fakeCache struct {
	invalidated []string
	err         error
}

func (f *fakeCache) InvalidateCompany(ctx context.Context, companyID string) error {
	f.invalidated = append(f.invalidated, companyID)
	return f.err
}

type fakeTransactor struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, lockKey string, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, lockKey)
	return fn(ctx)
}

var errStorage = errors.New("connection reset by peer")
