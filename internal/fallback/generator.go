package fallback

import (
	"fmt"
	"strings"

	"pulse/assistant/internal/types"
)

// Response is a locally computed, guaranteed-available answer used when the
// remote inference dependency is unavailable or unhelpful.
type Response struct {
	ContentHTML string
	FollowUps   []string
}

var positiveWords = []string{
	"good", "great", "well", "profit", "growth", "up", "best", "improve",
	"success", "win", "increase", "strong",
}

var negativeWords = []string{
	"bad", "poor", "loss", "down", "worst", "problem", "decline", "drop",
	"fail", "weak", "decrease", "worry",
}

var openings = map[string]string{
	"positive": "<p>Things are looking encouraging. Here's a quick read on your business:</p>",
	"negative": "<p>Let's take an honest look at where the numbers stand:</p>",
	"neutral":  "<p>Here's a summary of your current business position:</p>",
}

var followUpsByCategory = map[string][]string{
	"sales":     {"What were my top selling products?", "How do sales compare to last month?", "Who are my best customers?"},
	"expenses":  {"What are my biggest expenses?", "How can I reduce costs?", "What is my expense trend?"},
	"inventory": {"Which products are low on stock?", "What should I reorder?", "What is my inventory worth?"},
	"general":   {"How are my sales doing?", "What are my biggest expenses?", "Which products need restocking?"},
}

const maxFollowUps = 3

// Generate builds a deterministic answer for the question from the snapshot
// alone. It never fails and never returns empty content, including for empty
// context collections.
func Generate(question string, snap types.Snapshot, category string) Response {
	var b strings.Builder

	b.WriteString(openings[classify(question)])

	revenue := 0.0
	for _, s := range snap.Sales {
		revenue += s.Total
	}
	expenses := 0.0
	for _, e := range snap.Expenses {
		expenses += e.Amount
	}
	net := revenue - expenses

	cur := snap.Currency
	if cur == "" {
		cur = "$"
	}
	b.WriteString(fmt.Sprintf("<p>Revenue is %s and expenses are %s.</p>", money(cur, revenue), money(cur, expenses)))

	for _, ins := range insights(snap) {
		b.WriteString("<p>• " + ins + "</p>")
	}

	// Zero counts as non-negative: a flat result is not styled as a loss.
	tone := "positive"
	word := "net result"
	if net < 0 {
		tone = "negative"
		word = "net loss"
	}
	b.WriteString(fmt.Sprintf(`<p>Your %s is <span class="%s">%s</span>.</p>`, word, tone, money(cur, net)))

	return Response{ContentHTML: b.String(), FollowUps: followUps(category)}
}

// classify does lexical sentiment matching on the question; ties and
// no-matches are neutral.
func classify(question string) string {
	q := strings.ToLower(question)
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(q, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(q, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// insights derives up to three short observations from the snapshot. They are
// strictly best-effort: any heuristic that has nothing to say is skipped, and
// an empty list is a valid outcome.
func insights(snap types.Snapshot) []string {
	var out []string

	// Inventory: products running low.
	low := 0
	for _, p := range snap.Products {
		if p.Stock > 0 && p.Stock < 5 {
			low++
		}
	}
	if low > 0 {
		out = append(out, fmt.Sprintf("%d product(s) are running low on stock.", low))
	}

	// Customers: who drives the most revenue.
	if len(snap.Sales) > 0 && len(snap.Customers) > 0 {
		totals := make(map[string]float64)
		for _, s := range snap.Sales {
			totals[s.CustomerID] += s.Total
		}
		bestID, best := "", 0.0
		for id, t := range totals {
			if t > best {
				bestID, best = id, t
			}
		}
		for _, c := range snap.Customers {
			if c.ID == bestID {
				out = append(out, fmt.Sprintf("%s is your top customer by revenue.", c.Name))
				break
			}
		}
	}

	// Margin: average markup across priced products.
	priced, margin := 0, 0.0
	for _, p := range snap.Products {
		if p.Price > 0 && p.Cost > 0 && p.Price >= p.Cost {
			margin += (p.Price - p.Cost) / p.Price
			priced++
		}
	}
	if priced > 0 {
		out = append(out, fmt.Sprintf("Average product margin is %.0f%%.", margin/float64(priced)*100))
	}

	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

func followUps(category string) []string {
	list, ok := followUpsByCategory[category]
	if !ok {
		list = followUpsByCategory["general"]
	}
	if len(list) > maxFollowUps {
		list = list[:maxFollowUps]
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func money(currency string, v float64) string {
	if v < 0 {
		return fmt.Sprintf("-%s%.2f", currency, -v)
	}
	return fmt.Sprintf("%s%.2f", currency, v)
}
