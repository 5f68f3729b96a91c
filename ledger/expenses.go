package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

type ExpenseInput struct {
	PropertyID  uint
	UnitID      *uint
	CategoryID  *uint
	Amount      decimal.Decimal
	ExpenseDate time.Time
	Description string
}

func (s *Store) CreateExpenseCategory(ctx context.Context, category *models.ExpenseCategory) error {
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *Store) CreateExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	expense := models.Expense{
		PropertyID:   in.PropertyID,
		UnitID:       in.UnitID,
		CategoryID:   in.CategoryID,
		Amount:       in.Amount,
		ExpenseDate:  in.ExpenseDate,
		ExpenseMonth: period.Of(in.ExpenseDate),
		Description:  in.Description,
	}
	if err := s.db.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	return &expense, nil
}

// SumExpenses totals the user's expenses booked in the month.
func (s *Store) SumExpenses(ctx context.Context, userID uint, month period.Month) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.WithContext(ctx).Model(&models.Expense{}).
		Select("COALESCE(SUM(expenses.amount), 0)").
		Joins("JOIN properties ON properties.id = expenses.property_id").
		Where("properties.user_id = ? AND expenses.expense_month = ?", userID, month).
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return total, nil
}
