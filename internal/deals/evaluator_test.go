package deals

import (
	"testing"

	"steam-dealbot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func game(id, current, original string, cut int) models.Game {
	return models.Game{
		ID:            id,
		Price:         dec(current),
		OriginalPrice: dec(original),
		Cut:           cut,
		Name:          id,
		Link:          "https://store.steampowered.com/" + id,
	}
}

func ids(games []models.Game) []string {
	out := make([]string, 0, len(games))
	for _, g := range games {
		out = append(out, g.ID)
	}
	return out
}

var defaultParams = Params{MaxPrice: dec("5"), MinDiscount: 75, LowPriceDiscount: 50}

func TestEvaluateScenario(t *testing.T) {
	games := []models.Game{
		game("app/1", "4", "10", 60),  // caiu para dentro do limite
		game("app/2", "3", "4", 25),   // já era barato, desconto baixo
		game("app/3", "20", "20", 80), // desconto alto
	}

	got := Evaluate(games, defaultParams, nil)
	assert.Equal(t, []string{"app/1", "app/3"}, ids(got))
}

func TestApplicableBranches(t *testing.T) {
	historical := &models.PriceHistory{
		Current:    &models.PriceDeal{Shop: models.Shop{ID: "gog"}, Price: dec("12")},
		Historical: &models.PriceDeal{Shop: models.Shop{ID: "gog"}, Price: dec("15")},
	}
	recommended := game("app/9", "15", "30", 50)
	recommended.Deal = historical

	tests := []struct {
		name string
		game models.Game
		p    Params
		want bool
	}{
		{"barato com desconto suficiente", game("a", "2", "4", 50), defaultParams, true},
		{"barato com desconto insuficiente", game("a", "2", "4", 49), defaultParams, false},
		{"preço igual ao limite, original igual ao limite", game("a", "5", "5", 50), defaultParams, true},
		{"original acima do limite", game("a", "5", "5.01", 1), defaultParams, true},
		{"caro com desconto mínimo", game("a", "30", "120", 75), defaultParams, true},
		{"caro sem desconto mínimo", game("a", "30", "60", 74), defaultParams, false},
		{"recomendado com opção ativa", recommended, Params{MaxPrice: dec("5"), MinDiscount: 75, LowPriceDiscount: 50, IncludeRecommended: true}, true},
		{"recomendado com opção desativada", recommended, defaultParams, false},
		{"preço atual acima do original", game("a", "3", "2", 0), defaultParams, false},
		{"barato e desconto mínimo alto não passa pelo ramo 3", game("a", "3", "4", 90), Params{MaxPrice: dec("5"), MinDiscount: 75, LowPriceDiscount: 95}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Applicable(tt.game, tt.p, nil))
		})
	}
}

func TestExcludeSuppressesOnlySamePrice(t *testing.T) {
	g := game("app/1", "4", "10", 60)

	assert.False(t, Applicable(g, defaultParams, map[string]decimal.Decimal{"app/1": dec("4.00")}))
	assert.True(t, Applicable(g, defaultParams, map[string]decimal.Decimal{"app/1": dec("4.5")}))
	assert.True(t, Applicable(g, defaultParams, map[string]decimal.Decimal{"app/2": dec("4")}))
}

func TestExcludeVetoAppliesToRecommended(t *testing.T) {
	g := game("app/1", "15", "30", 50)
	g.Deal = &models.PriceHistory{Historical: &models.PriceDeal{Price: dec("20")}}
	p := defaultParams
	p.IncludeRecommended = true

	assert.True(t, Applicable(g, p, nil))
	assert.False(t, Applicable(g, p, map[string]decimal.Decimal{"app/1": dec("15")}))
}

func TestEvaluatePreservesOrder(t *testing.T) {
	games := []models.Game{
		game("z", "30", "100", 90),
		game("a", "1", "10", 90),
		game("m", "40", "100", 80),
	}

	assert.Equal(t, []string{"z", "a", "m"}, ids(Evaluate(games, defaultParams, nil)))
}

func TestEvaluateIsPure(t *testing.T) {
	games := []models.Game{game("a", "1", "10", 90)}
	exclude := map[string]decimal.Decimal{"b": dec("1")}

	Evaluate(games, defaultParams, exclude)

	assert.Len(t, games, 1)
	assert.Len(t, exclude, 1)
}

func TestNotifiedAgainOnlyAfterPriceChange(t *testing.T) {
	rec := models.NewUserRecord(1)
	rec.SetCache([]models.Game{game("app/1", "4", "10", 60)})
	q := Query{Params: defaultParams, ApplyExcludes: true}

	require.Len(t, q.Run(rec), 1)
	rec.ExcludeList = SnapshotExcludes(rec.Cache)

	// mesmo preço na rodada seguinte
	assert.Empty(t, q.Run(rec))
	rec.ExcludeList = SnapshotExcludes(rec.Cache)
	assert.Empty(t, q.Run(rec))

	// preço mudou
	rec.SetCache([]models.Game{game("app/1", "3", "10", 70)})
	assert.Len(t, q.Run(rec), 1)
}

func TestSnapshotExcludesReplacesAndDropsStale(t *testing.T) {
	cache := []models.Game{game("a", "1", "2", 50), game("b", "3", "6", 50)}

	got := SnapshotExcludes(cache)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].GameID)
	assert.True(t, got[0].Price.Equal(dec("1")))
	assert.Equal(t, "b", got[1].GameID)

	got = SnapshotExcludes([]models.Game{game("b", "2", "6", 66)})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].GameID)
	assert.True(t, got[0].Price.Equal(dec("2")))

	assert.Empty(t, SnapshotExcludes(nil))
}

func TestQueries(t *testing.T) {
	rec := models.NewUserRecord(1)
	rec.SetCache([]models.Game{game("app/1", "4", "10", 60), game("app/2", "8", "10", 20)})
	rec.ExcludeList = SnapshotExcludes(rec.Cache)

	assert.Empty(t, UserQuery(rec, true).Run(rec))
	assert.Equal(t, []string{"app/1"}, ids(UserQuery(rec, false).Run(rec)))

	custom := CustomQuery(Params{MaxPrice: dec("10"), MinDiscount: 100, LowPriceDiscount: 10})
	assert.Equal(t, []string{"app/1", "app/2"}, ids(custom.Run(rec)))
}
