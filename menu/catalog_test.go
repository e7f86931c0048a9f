package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already canonical", input: "Turkey Club", want: "Turkey Club"},
		{name: "lowercase", input: "turkey club", want: "Turkey Club"},
		{name: "uppercase", input: "TURKEY CLUB", want: "Turkey Club"},
		{name: "extra whitespace", input: "  turkey   club  ", want: "Turkey Club"},
		{name: "single word", input: "fries", want: "Fries"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("flattens nested categories", func(t *testing.T) {
		raw := []byte(`{
			"restaurant": "Archie's Deli",
			"sandwiches": {"Turkey Club": 9.5, "Reuben": 10.25},
			"drinks": {"sodas": {"Cola": 2.0}, "Iced Tea": 2.5}
		}`)

		cat, err := New(raw)
		require.NoError(t, err)

		assert.Equal(t, "Archie's Deli", cat.RestaurantName)
		assert.Len(t, cat.FlatItems, 4)
		assert.Equal(t, 9.5, cat.FlatItems["Turkey Club"])
		assert.Equal(t, 2.0, cat.FlatItems["Cola"])
	})

	t.Run("normalizes item keys", func(t *testing.T) {
		raw := []byte(`{"restaurant": "Spot", "menu": {"turkey  club": 9.5}}`)

		cat, err := New(raw)
		require.NoError(t, err)

		price, ok := cat.UnitPrice("TURKEY CLUB")
		require.True(t, ok)
		assert.Equal(t, 9.5, price)
	})

	t.Run("missing restaurant name", func(t *testing.T) {
		_, err := New([]byte(`{"menu": {"Fries": 3.5}}`))
		assert.ErrorIs(t, err, ErrCatalogMalformed)
	})

	t.Run("not JSON", func(t *testing.T) {
		_, err := New([]byte(`menu: fries`))
		assert.ErrorIs(t, err, ErrCatalogMalformed)
	})

	t.Run("non-numeric price", func(t *testing.T) {
		_, err := New([]byte(`{"restaurant": "Spot", "menu": {"Fries": "cheap"}}`))
		assert.ErrorIs(t, err, ErrCatalogMalformed)
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := New([]byte(`{"restaurant": "Spot", "menu": {"Fries": -1}}`))
		assert.ErrorIs(t, err, ErrCatalogMalformed)
	})

	t.Run("no priced items", func(t *testing.T) {
		_, err := New([]byte(`{"restaurant": "Spot"}`))
		assert.ErrorIs(t, err, ErrCatalogMalformed)
	})

	t.Run("duplicate after normalization", func(t *testing.T) {
		raw := []byte(`{"restaurant": "Spot", "menu": {"turkey club": 9.5, "Turkey Club": 10.0}}`)
		_, err := New(raw)
		assert.ErrorIs(t, err, ErrCatalogMalformed)
	})

	t.Run("nesting cap", func(t *testing.T) {
		var b []byte
		b = append(b, []byte(`{"restaurant": "Spot", `)...)
		for i := 0; i < 40; i++ {
			b = append(b, []byte(`"level": {`)...)
		}
		b = append(b, []byte(`"Fries": 3.5`)...)
		for i := 0; i < 40; i++ {
			b = append(b, '}')
		}
		b = append(b, '}')

		_, err := New(b)
		assert.ErrorIs(t, err, ErrCatalogMalformed)
	})
}

func TestUnitPrice(t *testing.T) {
	cat, err := New([]byte(`{"restaurant": "Spot", "menu": {"Turkey Club": 9.5, "Fries": 3.5}}`))
	require.NoError(t, err)

	tests := []struct {
		name      string
		item      string
		wantPrice float64
		wantOK    bool
	}{
		{name: "exact match", item: "Turkey Club", wantPrice: 9.5, wantOK: true},
		{name: "lowercase match", item: "turkey club", wantPrice: 9.5, wantOK: true},
		{name: "spaced match", item: " fries ", wantPrice: 3.5, wantOK: true},
		{name: "unknown item", item: "Sushi", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, ok := cat.UnitPrice(tt.item)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantPrice, price)
			}
		})
	}
}
