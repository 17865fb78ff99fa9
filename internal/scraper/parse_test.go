package scraper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"19,99€", "19.99"},
		{"19.99€", "19.99"},
		{"$4.99", "4.99"},
		{"19,--€", "19"},
		{"-", "0"},
		{" 0,49 € ", "0.49"},
		{"1.234,56€", "1234.56"},
		{"1,234.56", "1234.56"},
		{"12", "12"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParsePriceRejectsEmpty(t *testing.T) {
	_, err := ParsePrice("")
	assert.Error(t, err)

	_, err = ParsePrice("Free")
	assert.Error(t, err)
}

func TestParseDiscount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"-75%", 75},
		{"-33%", 33},
		{"50", 50},
		{"-", 0},
		{"-12,5%", 12},
		{"150%", 100},
	}

	for _, tt := range tests {
		got, err := ParseDiscount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDiscount("")
	assert.Error(t, err)
}

func TestGameID(t *testing.T) {
	id, err := GameID("https://store.steampowered.com/app/620/Portal_2/")
	require.NoError(t, err)
	assert.Equal(t, "app/620", id)

	id, err = GameID("http://store.steampowered.com/sub/1234")
	require.NoError(t, err)
	assert.Equal(t, "sub/1234", id)

	_, err = GameID("https://store.steampowered.com/")
	assert.Error(t, err)
}

func TestParseEntry(t *testing.T) {
	g, err := ParseEntry(RawEntry{
		Name:          " Portal 2 ",
		OriginalPrice: "19,99€",
		Price:         "1,99€",
		Discount:      "-90%",
		Link:          "https://store.steampowered.com/app/620/",
		Discounted:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "app/620", g.ID)
	assert.Equal(t, "Portal 2", g.Name)
	assert.True(t, g.OriginalPrice.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, g.Price.Equal(decimal.RequireFromString("1.99")))
	assert.Equal(t, 90, g.Cut)
	assert.Nil(t, g.Deal)
}

func TestParseEntryDerivesMissingDiscount(t *testing.T) {
	g, err := ParseEntry(RawEntry{
		OriginalPrice: "10,00€",
		Price:         "4,00€",
		Link:          "https://store.steampowered.com/app/1/",
	})
	require.NoError(t, err)
	assert.Equal(t, 60, g.Cut)
}

func TestParseEntryErrors(t *testing.T) {
	_, err := ParseEntry(RawEntry{Link: "nope", Price: "1", OriginalPrice: "2"})
	assert.Error(t, err)

	_, err = ParseEntry(RawEntry{Link: "https://store.steampowered.com/app/1/", Price: "", OriginalPrice: "2"})
	assert.Error(t, err)
}
