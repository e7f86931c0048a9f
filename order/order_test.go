package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderagent"
	"orderagent/menu"
)

func testCatalog(t *testing.T) *menu.Catalog {
	t.Helper()
	cat, err := menu.New([]byte(`{
		"restaurant": "Archie's Deli",
		"sandwiches": {"Turkey Club": 9.5, "Reuben": 10.25},
		"sides": {"Fries": 3.5},
		"drinks": {"Cola": 2.0}
	}`))
	require.NoError(t, err)
	return cat
}

func TestReconcile(t *testing.T) {
	cat := testCatalog(t)

	t.Run("prices recognized items", func(t *testing.T) {
		cand := orderagent.Candidate{
			MenuItems: []orderagent.LineItem{
				{Name: "Turkey Club", Quantity: 2},
				{Name: "Fries", Quantity: 1},
			},
			HumanResponse: "Anything else?",
		}

		ord, err := Reconcile(cand, cat)
		require.NoError(t, err)

		require.Len(t, ord.Recognized, 2)
		assert.Equal(t, 19.0, ord.Recognized[0].Subtotal)
		assert.Equal(t, 2, ord.Recognized[0].Quantity)
		assert.Equal(t, 22.5, ord.TotalPrice)
		assert.Empty(t, ord.Unrecognized)
		assert.Equal(t, "Anything else?", ord.HumanResponse)
	})

	t.Run("resolves names case insensitively", func(t *testing.T) {
		cand := orderagent.Candidate{
			MenuItems: []orderagent.LineItem{{Name: "turkey club", Quantity: 1}},
		}

		ord, err := Reconcile(cand, cat)
		require.NoError(t, err)

		require.Len(t, ord.Recognized, 1)
		assert.Equal(t, "Turkey Club", ord.Recognized[0].Item.Name)
		assert.Equal(t, 9.5, ord.TotalPrice)
	})

	t.Run("unknown names go to unrecognized untouched", func(t *testing.T) {
		cand := orderagent.Candidate{
			MenuItems: []orderagent.LineItem{
				{Name: "Turkey Club", Quantity: 1},
				{Name: "sushi roll", Quantity: 2},
			},
		}

		ord, err := Reconcile(cand, cat)
		require.NoError(t, err)

		require.Len(t, ord.Unrecognized, 1)
		assert.Equal(t, "sushi roll", ord.Unrecognized[0].Name)
		assert.Equal(t, 9.5, ord.TotalPrice)
	})

	t.Run("accumulates repeated lines with same details", func(t *testing.T) {
		cand := orderagent.Candidate{
			MenuItems: []orderagent.LineItem{
				{Name: "Turkey Club", Quantity: 1, Details: []string{"no onions"}},
				{Name: "turkey club", Quantity: 2, Details: []string{"no onions"}},
			},
		}

		ord, err := Reconcile(cand, cat)
		require.NoError(t, err)

		require.Len(t, ord.Recognized, 1)
		assert.Equal(t, 3, ord.Recognized[0].Quantity)
		assert.Equal(t, 28.5, ord.Recognized[0].Subtotal)
	})

	t.Run("different details stay separate lines", func(t *testing.T) {
		cand := orderagent.Candidate{
			MenuItems: []orderagent.LineItem{
				{Name: "Turkey Club", Quantity: 1, Details: []string{"no onions"}},
				{Name: "Turkey Club", Quantity: 1},
			},
		}

		ord, err := Reconcile(cand, cat)
		require.NoError(t, err)
		assert.Len(t, ord.Recognized, 2)
	})

	t.Run("quantity zero is allowed", func(t *testing.T) {
		cand := orderagent.Candidate{
			MenuItems: []orderagent.LineItem{{Name: "Fries", Quantity: 0}},
		}

		ord, err := Reconcile(cand, cat)
		require.NoError(t, err)

		require.Len(t, ord.Recognized, 1)
		assert.Equal(t, 0.0, ord.TotalPrice)
	})

	t.Run("negative quantity fails the whole candidate", func(t *testing.T) {
		cand := orderagent.Candidate{
			MenuItems: []orderagent.LineItem{
				{Name: "Turkey Club", Quantity: 1},
				{Name: "Fries", Quantity: -2},
			},
		}

		_, err := Reconcile(cand, cat)
		var qtyErr *InvalidQuantityError
		require.ErrorAs(t, err, &qtyErr)
		assert.Equal(t, "Fries", qtyErr.Item)
		assert.Equal(t, -2, qtyErr.Quantity)
	})

	t.Run("negative quantity in unrecognized also fails", func(t *testing.T) {
		cand := orderagent.Candidate{
			UnrecognizedItems: []orderagent.LineItem{{Name: "sushi", Quantity: -1}},
		}

		_, err := Reconcile(cand, cat)
		var qtyErr *InvalidQuantityError
		assert.ErrorAs(t, err, &qtyErr)
	})
}

func TestMerge(t *testing.T) {
	cat := testCatalog(t)

	reconcile := func(t *testing.T, cand orderagent.Candidate) *Order {
		t.Helper()
		ord, err := Reconcile(cand, cat)
		require.NoError(t, err)
		return ord
	}

	t.Run("accumulates recognized and replaces unrecognized", func(t *testing.T) {
		running := reconcile(t, orderagent.Candidate{
			MenuItems:         []orderagent.LineItem{{Name: "Turkey Club", Quantity: 2}},
			UnrecognizedItems: []orderagent.LineItem{{Name: "sushi", Quantity: 1}},
		})
		clarified := reconcile(t, orderagent.Candidate{
			MenuItems:     []orderagent.LineItem{{Name: "Reuben", Quantity: 1}},
			HumanResponse: "Got it.",
			IsCompleted:   true,
		})

		running.Merge(clarified)

		assert.Len(t, running.Recognized, 2)
		assert.Empty(t, running.Unrecognized)
		assert.Equal(t, 29.25, running.TotalPrice)
		assert.Equal(t, "Got it.", running.HumanResponse)
		assert.True(t, running.IsCompleted)
	})

	t.Run("same line accumulates across merges", func(t *testing.T) {
		running := reconcile(t, orderagent.Candidate{
			MenuItems: []orderagent.LineItem{{Name: "Cola", Quantity: 1}},
		})
		clarified := reconcile(t, orderagent.Candidate{
			MenuItems: []orderagent.LineItem{{Name: "cola", Quantity: 2}},
		})

		running.Merge(clarified)

		require.Len(t, running.Recognized, 1)
		assert.Equal(t, 3, running.Recognized[0].Quantity)
		assert.Equal(t, 6.0, running.TotalPrice)
	})

	t.Run("empty clarified order clears unrecognized only", func(t *testing.T) {
		running := reconcile(t, orderagent.Candidate{
			MenuItems:         []orderagent.LineItem{{Name: "Turkey Club", Quantity: 1}},
			UnrecognizedItems: []orderagent.LineItem{{Name: "sushi", Quantity: 1}},
		})
		clarified := reconcile(t, orderagent.Candidate{IsCompleted: true})

		running.Merge(clarified)

		assert.Len(t, running.Recognized, 1)
		assert.Empty(t, running.Unrecognized)
		assert.Equal(t, 9.5, running.TotalPrice)
	})

	t.Run("not commutative", func(t *testing.T) {
		a1 := reconcile(t, orderagent.Candidate{
			MenuItems:         []orderagent.LineItem{{Name: "Turkey Club", Quantity: 1}},
			UnrecognizedItems: []orderagent.LineItem{{Name: "sushi", Quantity: 1}},
			HumanResponse:     "first",
		})
		b1 := reconcile(t, orderagent.Candidate{
			MenuItems:     []orderagent.LineItem{{Name: "Reuben", Quantity: 1}},
			HumanResponse: "second",
		})
		a2 := reconcile(t, orderagent.Candidate{
			MenuItems:         []orderagent.LineItem{{Name: "Turkey Club", Quantity: 1}},
			UnrecognizedItems: []orderagent.LineItem{{Name: "sushi", Quantity: 1}},
			HumanResponse:     "first",
		})
		b2 := reconcile(t, orderagent.Candidate{
			MenuItems:     []orderagent.LineItem{{Name: "Reuben", Quantity: 1}},
			HumanResponse: "second",
		})

		a1.Merge(b1)
		b2.Merge(a2)

		assert.NotEqual(t, a1.HumanResponse, b2.HumanResponse)
		assert.Empty(t, a1.Unrecognized)
		assert.NotEmpty(t, b2.Unrecognized)
	})
}

func TestComplete(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name string
		cand orderagent.Candidate
		want bool
	}{
		{
			name: "recognized and nothing unresolved",
			cand: orderagent.Candidate{MenuItems: []orderagent.LineItem{{Name: "Fries", Quantity: 1}}},
			want: true,
		},
		{
			name: "unresolved items block completion",
			cand: orderagent.Candidate{
				MenuItems:         []orderagent.LineItem{{Name: "Fries", Quantity: 1}},
				UnrecognizedItems: []orderagent.LineItem{{Name: "sushi", Quantity: 1}},
			},
			want: false,
		},
		{
			name: "explicit completion overrides unresolved items",
			cand: orderagent.Candidate{
				MenuItems:         []orderagent.LineItem{{Name: "Fries", Quantity: 1}},
				UnrecognizedItems: []orderagent.LineItem{{Name: "sushi", Quantity: 1}},
				IsCompleted:       true,
			},
			want: true,
		},
		{
			name: "empty order is not complete",
			cand: orderagent.Candidate{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ord, err := Reconcile(tt.cand, cat)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ord.Complete())
		})
	}
}

func TestSummary(t *testing.T) {
	cat := testCatalog(t)

	ord, err := Reconcile(orderagent.Candidate{
		MenuItems: []orderagent.LineItem{
			{Name: "Turkey Club", Quantity: 2, Details: []string{"no onions"}},
			{Name: "Cola", Quantity: 1},
		},
	}, cat)
	require.NoError(t, err)

	got := ord.Summary()
	assert.Contains(t, got, " * Turkey Club: 2 x 9.5 = $19")
	assert.Contains(t, got, "   - no onions")
	assert.Contains(t, got, " * Cola: 1 x 2 = $2")
	assert.Contains(t, got, "Total: $21")
}

func TestHumanItemList(t *testing.T) {
	tests := []struct {
		name  string
		items []orderagent.LineItem
		want  string
	}{
		{name: "empty", items: nil, want: ""},
		{name: "one", items: []orderagent.LineItem{{Name: "sushi"}}, want: "sushi"},
		{
			name:  "two",
			items: []orderagent.LineItem{{Name: "sushi"}, {Name: "ramen"}},
			want:  "sushi and ramen",
		},
		{
			name:  "three",
			items: []orderagent.LineItem{{Name: "sushi"}, {Name: "ramen"}, {Name: "poke"}},
			want:  "sushi, ramen and poke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanItemList(tt.items))
		})
	}
}
