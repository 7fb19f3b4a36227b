package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary is the report over a whole collection.
type Summary struct {
	Count      int
	Total      Money
	ByCategory []CategoryAmount
}

// TotalsByCategory sums amounts per category, in first-seen category order.
func (c Expenses) TotalsByCategory() []CategoryAmount {
	idx := make(map[string]int)
	list := make([]CategoryAmount, 0)
	for _, e := range c {
		i, seen := idx[e.Category]
		if !seen {
			i = len(list)
			idx[e.Category] = i
			list = append(list, CategoryAmount{Name: e.Category})
		}
		list[i].Amount = list[i].Amount.Add(e.Amount)
	}
	return list
}

// GrandTotal sums every amount. Zero for an empty collection.
func (c Expenses) GrandTotal() Money {
	var total Money
	for _, e := range c {
		total = total.Add(e.Amount)
	}
	return total
}

func (c Expenses) Summarize() Summary {
	return Summary{
		Count:      len(c),
		Total:      c.GrandTotal(),
		ByCategory: c.TotalsByCategory(),
	}
}
