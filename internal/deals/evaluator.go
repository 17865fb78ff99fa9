package deals

import (
	"steam-dealbot/internal/models"

	"github.com/shopspring/decimal"
)

// Params são os limites de uma avaliação
type Params struct {
	MaxPrice           decimal.Decimal
	LowPriceDiscount   int // Desconto exigido de jogos que já custavam até MaxPrice
	MinDiscount        int // Desconto que qualifica qualquer jogo, independente do preço
	IncludeRecommended bool
}

// ParamsFromConfig monta os parâmetros a partir da configuração do usuário
func ParamsFromConfig(c models.UserConfig) Params {
	return Params{
		MaxPrice:           c.MaxPrice,
		LowPriceDiscount:   c.LowPriceMinDiscount,
		MinDiscount:        c.MinDiscount,
		IncludeRecommended: c.ShowBestDeals,
	}
}

// Evaluate filtra os jogos que merecem notificação, preservando a ordem de entrada.
// exclude associa o ID do jogo ao preço da última notificação; pode ser nil.
func Evaluate(games []models.Game, p Params, exclude map[string]decimal.Decimal) []models.Game {
	out := make([]models.Game, 0, len(games))
	for _, g := range games {
		if Applicable(g, p, exclude) {
			out = append(out, g)
		}
	}
	return out
}

// Applicable aplica as regras na ordem: exclusão, faixa de preço, desconto mínimo, recomendado
func Applicable(g models.Game, p Params, exclude map[string]decimal.Decimal) bool {
	// Já notificado e o preço não mudou
	if price, ok := exclude[g.ID]; ok && price.Equal(g.Price) {
		return false
	}

	if g.Price.LessThanOrEqual(p.MaxPrice) {
		if g.OriginalPrice.LessThanOrEqual(p.MaxPrice) {
			return g.Cut >= p.LowPriceDiscount
		}
		// Caiu de acima do limite para dentro dele
		return true
	}

	if g.Cut >= p.MinDiscount {
		return true
	}

	return p.IncludeRecommended && g.IsRecommended()
}

// SnapshotExcludes gera o novo conjunto de exclusão: uma entrada por jogo do cache, com o preço atual
func SnapshotExcludes(cache []models.Game) []models.ExcludeEntry {
	out := make([]models.ExcludeEntry, 0, len(cache))
	seen := make(map[string]int, len(cache))

	for _, g := range cache {
		entry := models.ExcludeEntry{GameID: g.ID, Price: g.Price}
		if i, ok := seen[g.ID]; ok {
			out[i] = entry
			continue
		}
		seen[g.ID] = len(out)
		out = append(out, entry)
	}

	return out
}
