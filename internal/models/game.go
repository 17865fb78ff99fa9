package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CanonicalShop é o identificador da loja cuja wishlist é lida
const CanonicalShop = "steam"

// Shop identifica uma loja no serviço de comparação de preços
type Shop struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Region é a região de preços do serviço de comparação e sua moeda
type Region struct {
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

// PriceDeal é uma observação de preço em uma loja
type PriceDeal struct {
	Shop   Shop            `json:"shop"`
	Region Region          `json:"region"`
	Price  decimal.Decimal `json:"price"`
	Cut    int             `json:"cut"`
}

func (p PriceDeal) String() string {
	return fmt.Sprintf("%s%s (%d%%) em %s", p.Price.StringFixed(2), p.Region.Currency, p.Cut, p.Shop.Name)
}

// PriceHistory guarda o menor preço atual entre as lojas e o menor preço histórico de um jogo
type PriceHistory struct {
	GameID     string     `json:"game_id"`
	Plain      string     `json:"game_plain"`
	Country    string     `json:"country"`
	Current    *PriceDeal `json:"current"`
	Historical *PriceDeal `json:"historical"`
}

// Game representa um jogo em promoção observado na wishlist
type Game struct {
	ID            string          `json:"game_id"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Price         decimal.Decimal `json:"price"`
	Cut           int             `json:"cut"` // Percentual de desconto (0-100), como exibido na loja
	Link          string          `json:"link"`
	Name          string          `json:"name"`
	Deal          *PriceHistory   `json:"deal"`
}

// IsRecommended indica se o preço atual iguala ou supera o menor preço histórico,
// seja pelo próprio preço da wishlist ou pelo menor preço atual quando ele é da Steam
func (g Game) IsRecommended() bool {
	if g.Deal == nil || g.Deal.Historical == nil {
		return false
	}

	historical := g.Deal.Historical.Price
	if g.Price.LessThanOrEqual(historical) {
		return true
	}

	current := g.Deal.Current
	return current != nil &&
		current.Price.LessThanOrEqual(historical) &&
		current.Shop.ID == CanonicalShop
}

// DiscountPercent calcula (original-atual)/original*100, truncado e limitado a 0-100
func DiscountPercent(original, current decimal.Decimal) int {
	if !original.IsPositive() {
		return 0
	}

	pct := original.Sub(current).Div(original).Mul(decimal.NewFromInt(100)).IntPart()
	return ClampPercent(int(pct))
}

// ClampPercent limita um percentual ao intervalo 0-100
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// DedupGames mantém um jogo por ID: a posição é a da primeira ocorrência e o valor o da última
func DedupGames(games []Game) []Game {
	index := make(map[string]int, len(games))
	out := make([]Game, 0, len(games))

	for _, g := range games {
		if i, ok := index[g.ID]; ok {
			out[i] = g
			continue
		}
		index[g.ID] = len(out)
		out = append(out, g)
	}

	return out
}
