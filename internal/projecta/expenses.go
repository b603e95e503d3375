package projecta

import (
	"context"
	"time"
)

// Expense is a project expense prepared for display: money formatted to two
// decimals, date rendered with ViewDateLayout.
type Expense struct {
	ID          string
	Description string
	Amount      string
	Currency    string
	Type        string
	Category    string
	ExpenseDate string
}

// AddExpense describes a new expense in major units.
type AddExpense struct {
	CategoryID  string
	TypeID      string
	Amount      float64
	Currency    string
	ExpenseDate time.Time
	Description string
}

type expenseDTO struct {
	ExpenseID   string   `json:"expense_id"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency"`
	Description string   `json:"description"`
	Type        namedDTO `json:"type"`
	Category    namedDTO `json:"category"`
	ExpenseDate string   `json:"expense_date"`
}

type expenseListDTO struct {
	Expenses []expenseDTO `json:"expenses"`
	Total    int          `json:"total"`
}

type addExpenseDTO struct {
	CategoryID  string `json:"category_id"`
	TypeID      string `json:"type_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	ExpenseDate string `json:"expense_date"`
	Description string `json:"description"`
}

// ExpenseRepository maps /projects/{id}/expenses.
type ExpenseRepository struct {
	caller Caller
}

// NewExpenseRepository wires the repository to an API caller.
func NewExpenseRepository(caller Caller) *ExpenseRepository {
	return &ExpenseRepository{caller: caller}
}

// List returns one page of expenses plus the collection total.
func (repository *ExpenseRepository) List(ctx context.Context, projectID string, page Page) ([]Expense, int, error) {
	var response expenseListDTO
	if err := repository.caller.Get(ctx, collectionPath(projectID, "expenses", page), &response); err != nil {
		return nil, 0, err
	}
	expenses := make([]Expense, 0, len(response.Expenses))
	for _, dto := range response.Expenses {
		expenses = append(expenses, toExpense(dto))
	}
	return expenses, response.Total, nil
}

// Add records a new expense.
func (repository *ExpenseRepository) Add(ctx context.Context, projectID string, expense AddExpense) (Expense, error) {
	var response expenseDTO
	err := repository.caller.Post(ctx, "/projects/"+projectID+"/expenses", addExpenseDTO{
		CategoryID:  expense.CategoryID,
		TypeID:      expense.TypeID,
		Amount:      ToMinorUnits(expense.Amount),
		Currency:    expense.Currency,
		ExpenseDate: expense.ExpenseDate.Format(time.RFC3339),
		Description: expense.Description,
	}, &response)
	if err != nil {
		return Expense{}, err
	}
	return toExpense(response), nil
}

// Remove deletes an expense.
func (repository *ExpenseRepository) Remove(ctx context.Context, projectID string, expenseID string) error {
	return repository.caller.Delete(ctx, resourcePath(projectID, "expenses", expenseID), nil)
}

func toExpense(dto expenseDTO) Expense {
	return Expense{
		ID:          dto.ExpenseID,
		Description: dto.Description,
		Amount:      FormatMinorUnits(dto.Amount),
		Currency:    dto.Currency,
		Type:        dto.Type.Name,
		Category:    dto.Category.Name,
		ExpenseDate: ToDateView(dto.ExpenseDate),
	}
}
