package fallback

import (
	"strings"
	"testing"

	"pulse/assistant/internal/types"
)

func TestGenerateNeverEmpty(t *testing.T) {
	cases := []struct {
		name     string
		question string
		snap     types.Snapshot
		category string
	}{
		{"empty everything", "", types.Snapshot{}, ""},
		{"empty context", "How are we doing?", types.Snapshot{}, "general"},
		{"unknown category", "status?", types.Snapshot{}, "nonsense"},
		{"full context", "Are sales up?", types.Snapshot{
			Sales:    []types.Sale{{ID: "s1", Total: 100}},
			Expenses: []types.Expense{{ID: "e1", Amount: 40}},
		}, "sales"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Generate(tc.question, tc.snap, tc.category)
			if strings.TrimSpace(r.ContentHTML) == "" {
				t.Fatal("empty content")
			}
			if len(r.FollowUps) == 0 || len(r.FollowUps) > 3 {
				t.Fatalf("bad follow-up count: %d", len(r.FollowUps))
			}
		})
	}
}

func TestGenerateZeroNetIsNonNegative(t *testing.T) {
	r := Generate("How are we doing?", types.Snapshot{Currency: "$"}, "unknown-cat")
	if !strings.Contains(r.ContentHTML, `<span class="positive">$0.00</span>`) {
		t.Fatalf("zero net not styled non-negative: %s", r.ContentHTML)
	}
	// Unknown category falls back to the generic list.
	if r.FollowUps[0] != followUpsByCategory["general"][0] {
		t.Fatalf("expected generic follow-ups, got %v", r.FollowUps)
	}
}

func TestGenerateNegativeNet(t *testing.T) {
	snap := types.Snapshot{
		Currency: "$",
		Sales:    []types.Sale{{Total: 10}},
		Expenses: []types.Expense{{Amount: 25}},
	}
	r := Generate("why is everything bad", snap, "expenses")
	if !strings.Contains(r.ContentHTML, `<span class="negative">-$15.00</span>`) {
		t.Fatalf("negative net not styled: %s", r.ContentHTML)
	}
	if !strings.HasPrefix(r.ContentHTML, openings["negative"]) {
		t.Fatalf("expected negative opening: %s", r.ContentHTML)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct{ q, want string }{
		{"are we making good profit", "positive"},
		{"why is revenue down so bad", "negative"},
		{"what is the weather", "neutral"},
		{"good but bad", "neutral"}, // tie
	}
	for _, tc := range cases {
		if got := classify(tc.q); got != tc.want {
			t.Errorf("classify(%q) = %q, want %q", tc.q, got, tc.want)
		}
	}
}

func TestInsightsBestEffort(t *testing.T) {
	// Nothing to say: no products, no sales.
	if got := insights(types.Snapshot{}); len(got) != 0 {
		t.Fatalf("expected no insights, got %v", got)
	}

	snap := types.Snapshot{
		Products: []types.Product{
			{ID: "p1", Name: "Widget", Stock: 2, Price: 10, Cost: 6},
			{ID: "p2", Name: "Gadget", Stock: 50, Price: 20, Cost: 10},
		},
		Sales:     []types.Sale{{CustomerID: "c1", Total: 300}, {CustomerID: "c2", Total: 100}},
		Customers: []types.Customer{{ID: "c1", Name: "Acme"}, {ID: "c2", Name: "Globex"}},
	}
	got := insights(snap)
	if len(got) != 3 {
		t.Fatalf("expected 3 insights, got %v", got)
	}
	if !strings.Contains(got[1], "Acme") {
		t.Fatalf("expected top customer insight, got %q", got[1])
	}
}
