package core

// Category is one entry of the closed category table.
type Category struct {
	Key   string
	Label string
}

// CategoryTable maps category keys to display labels. It is built once and
// never mutated.
type CategoryTable struct {
	ordered []Category
	labels  map[string]string
}

// NewCategoryTable builds a table preserving the given order.
func NewCategoryTable(categories []Category) CategoryTable {
	t := CategoryTable{
		ordered: append([]Category(nil), categories...),
		labels:  make(map[string]string, len(categories)),
	}
	for _, c := range categories {
		if c.Key == "" {
			continue
		}
		t.labels[c.Key] = c.Label
	}
	return t
}

// DefaultCategories returns the store's category table. The first entry is
// the empty placeholder shown by the form dropdown.
func DefaultCategories() CategoryTable {
	return NewCategoryTable([]Category{
		{Key: "", Label: "Categoria"},
		{Key: "expenses", Label: "Despesas Gerais"},
		{Key: "gratuities", Label: "Gratificações"},
		{Key: "salaries", Label: "Salários"},
		{Key: "withdrawals", Label: "Saque Banco"},
		{Key: "cash_exchange", Label: "Troco Caixa"},
		{Key: "income", Label: "Venda Caixa"},
		{Key: "otherstores", Label: "Outras Lojas"},
		{Key: "other", Label: "Outros"},
	})
}

// Label returns the display label for key, or key itself when unknown.
func (t CategoryTable) Label(key string) string {
	if label, ok := t.labels[key]; ok {
		return label
	}
	return key
}

// Options returns the table in display order, placeholder included.
func (t CategoryTable) Options() []Category {
	return append([]Category(nil), t.ordered...)
}
