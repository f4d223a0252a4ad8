package core

import "github.com/shopspring/decimal"

// Totals are the stat card values.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// Aggregate sums the full transaction set by type. Entries with an unknown
// type or an unreadable amount count toward neither side.
func Aggregate(transactions []Transaction) Totals {
	income := decimal.Zero
	expense := decimal.Zero
	for _, t := range transactions {
		if !t.Amount.Valid {
			continue
		}
		switch t.Type {
		case Income:
			income = income.Add(t.Amount.Decimal)
		case Expense:
			expense = expense.Add(t.Amount.Decimal)
		}
	}
	return Totals{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}
}
