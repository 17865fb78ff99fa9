package monitor

import (
	"context"
	"time"

	"steam-dealbot/internal/metrics"
	"steam-dealbot/internal/models"
	"steam-dealbot/internal/scraper"
	"steam-dealbot/pkg/logger"
)

// Refresher monta o cache de promoções de um usuário a partir da wishlist
type Refresher struct {
	source  scraper.WishlistSource
	history scraper.HistoryLookup
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewRefresher cria o reconciliador; history pode ser nil
func NewRefresher(source scraper.WishlistSource, history scraper.HistoryLookup, m *metrics.Metrics, log *logger.Logger) *Refresher {
	return &Refresher{
		source:  source,
		history: history,
		metrics: m,
		log:     log,
	}
}

// Refresh busca a wishlist e retorna os jogos em promoção, um por ID, na ordem da página.
// O resultado substitui o cache inteiro; erros de histórico de preços não interrompem.
func (r *Refresher) Refresh(ctx context.Context, username string) ([]models.Game, error) {
	start := time.Now()
	defer func() {
		r.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}()

	entries, err := r.source.Fetch(ctx, username)
	if err != nil {
		r.metrics.RefreshFailures.Inc()
		return nil, err
	}

	games := make([]models.Game, 0, len(entries))
	for _, e := range entries {
		if !e.Discounted {
			continue
		}
		g, err := scraper.ParseEntry(e)
		if err != nil {
			r.log.Warn("Linha da wishlist ignorada", "username", username, "name", e.Name, "error", err)
			continue
		}
		games = append(games, g)
	}

	games = models.DedupGames(games)
	r.attachHistory(ctx, games)

	r.log.Debug("Cache atualizado", "username", username, "games", len(games))
	return games, nil
}

func (r *Refresher) attachHistory(ctx context.Context, games []models.Game) {
	if len(games) == 0 || r.history == nil || !r.history.Enabled() {
		return
	}

	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID)
	}

	histories, err := r.history.LowestPrices(ctx, ids)
	if err != nil {
		r.log.Warn("Histórico de preços indisponível", "error", err)
	}

	byID := make(map[string]models.PriceHistory, len(histories))
	for _, h := range histories {
		byID[h.GameID] = h
	}
	for i := range games {
		if h, ok := byID[games[i].ID]; ok {
			games[i].Deal = &h
		}
	}
}
