package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category Category
	Amount   decimal.Decimal
}

// ChartBar is one bar of the per-category chart. Width is the bar length
// in percent of the largest category.
type ChartBar struct {
	Category Category
	Amount   decimal.Decimal
	Width    int
}

// Report is the aggregate view over a set of expenses.
type Report struct {
	Count         int
	Total         decimal.Decimal
	Average       decimal.Decimal
	ByCategory    []CategoryAmount
	CategoryCount int
	Chart         []ChartBar
}

// Summarize aggregates expenses into a Report. Categories appear in the
// order they are first seen in the input; an empty input yields zeros.
func Summarize(expenses []Expense) Report {
	r := Report{
		Count:      len(expenses),
		Total:      decimal.Zero,
		Average:    decimal.Zero,
		ByCategory: []CategoryAmount{},
		Chart:      []ChartBar{},
	}
	index := make(map[Category]int)
	for _, e := range expenses {
		r.Total = r.Total.Add(e.Amount)
		i, ok := index[e.Category]
		if !ok {
			i = len(r.ByCategory)
			index[e.Category] = i
			r.ByCategory = append(r.ByCategory, CategoryAmount{Category: e.Category, Amount: decimal.Zero})
		}
		r.ByCategory[i].Amount = r.ByCategory[i].Amount.Add(e.Amount)
	}
	if r.Count > 0 {
		r.Average = r.Total.Div(decimal.NewFromInt(int64(r.Count)))
	}
	r.CategoryCount = len(r.ByCategory)
	r.Chart = chartBars(r.ByCategory)
	return r
}

// Amount returns the aggregated amount for c, zero when absent.
func (r Report) Amount(c Category) decimal.Decimal {
	for _, ca := range r.ByCategory {
		if ca.Category == c {
			return ca.Amount
		}
	}
	return decimal.Zero
}

func chartBars(rows []CategoryAmount) []ChartBar {
	max := decimal.Zero
	for _, row := range rows {
		if row.Amount.GreaterThan(max) {
			max = row.Amount
		}
	}
	bars := make([]ChartBar, 0, len(rows))
	for _, row := range rows {
		width := 0
		if max.IsPositive() && row.Amount.IsPositive() {
			width = int(row.Amount.Mul(decimal.NewFromInt(100)).Div(max).Round(0).IntPart())
			if width < 2 { // keep tiny categories visible
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		bars = append(bars, ChartBar{Category: row.Category, Amount: row.Amount, Width: width})
	}
	return bars
}
