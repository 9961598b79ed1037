package core

import "github.com/shopspring/decimal"

// CategoryShare is the amount spent in one expense category and its share of the total.
type CategoryShare struct {
	Name       string
	Amount     Money
	Percentage float64 // 0-100, two decimals
}

// Summary holds the dashboard aggregates.
type Summary struct {
	Participants    int
	TotalAdults     int
	TotalCouples    int
	TotalChildren   int
	TotalExpense    Money
	CostPerPerson   Money
	AmountPerCouple Money
	Categories      []CategoryShare
}

// ComputeSummary aggregates participants and expenses in a single pass over each.
//
// Couples count as two adults; children are reported but do not share costs.
// Cost per person is the total divided by adults, rounded half-up to the
// centavo, and a couple's share is twice that. Every division is guarded:
// no adults means no cost per person, no couples means no couple amount.
func ComputeSummary(participants []Participant, expenses []Expense) Summary {
	s := Summary{Participants: len(participants)}
	for _, p := range participants {
		s.TotalAdults += p.Type.Adults()
		s.TotalChildren += p.Children
		if p.Type == Couple {
			s.TotalCouples++
		}
	}

	s.Categories = CategoryTotals(expenses)
	for _, c := range s.Categories {
		s.TotalExpense.Cents += c.Amount.Cents
	}

	if s.TotalAdults > 0 {
		s.CostPerPerson.Cents = decimal.NewFromInt(s.TotalExpense.Cents).
			Div(decimal.NewFromInt(int64(s.TotalAdults))).
			Round(0).
			IntPart()
	}
	if s.TotalCouples > 0 {
		s.AmountPerCouple.Cents = s.CostPerPerson.Cents * 2
	}
	return s
}

// CategoryTotals groups expenses by category, keeping first-seen order, and
// computes each category's percentage of the overall total.
func CategoryTotals(expenses []Expense) []CategoryShare {
	index := make(map[string]int)
	var out []CategoryShare
	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryShare{Name: e.Category})
		}
		out[i].Amount.Cents += e.Amount.Cents
	}

	if total == 0 {
		return out
	}
	hundred := decimal.NewFromInt(100)
	dt := decimal.NewFromInt(total)
	for i := range out {
		out[i].Percentage = decimal.NewFromInt(out[i].Amount.Cents).
			Mul(hundred).
			Div(dt).
			Round(2).
			InexactFloat64()
	}
	return out
}
