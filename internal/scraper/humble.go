package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"steam-dealbot/internal/httpclient"
	"steam-dealbot/internal/models"
	"steam-dealbot/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
)

// DefaultHumbleServiceURL lista os bundles ativos da Humble Bundle
const DefaultHumbleServiceURL = "https://hr-humblebundle.appspot.com/androidapp/v2/service_check"

// HistoryLookup busca o histórico de preços de jogos da Steam
type HistoryLookup interface {
	Enabled() bool
	LowestPrices(ctx context.Context, ids []string) ([]models.PriceHistory, error)
}

// BundleGame é um jogo de um bundle; ID vazio quando não foi encontrado na Steam
type BundleGame struct {
	Name string
	ID   string
	Link string
	Deal *models.PriceHistory
}

// Tier é uma faixa de preço de um bundle
type Tier struct {
	Price string
	Games []BundleGame
}

// Bundle é um bundle ativo da Humble Bundle
type Bundle struct {
	Name  string
	URL   string
	Tiers []Tier
}

// Humble lê os bundles ativos e resolve seus jogos na loja Steam
type Humble struct {
	client     *httpclient.Client
	serviceURL string
	search     *SteamSearch
	history    HistoryLookup
	log        *logger.Logger
}

// NewHumble cria o scraper da Humble Bundle; history pode ser nil
func NewHumble(client *httpclient.Client, serviceURL string, search *SteamSearch, history HistoryLookup, log *logger.Logger) *Humble {
	if serviceURL == "" {
		serviceURL = DefaultHumbleServiceURL
	}
	return &Humble{
		client:     client,
		serviceURL: serviceURL,
		search:     search,
		history:    history,
		log:        log,
	}
}

// ActiveBundles retorna os bundles ativos com seus jogos
func (h *Humble) ActiveBundles(ctx context.Context) ([]Bundle, error) {
	body, err := h.client.Get(ctx, h.serviceURL, "application/json")
	if err != nil {
		return nil, fmt.Errorf("buscar bundles ativos: %w", err)
	}

	var listing []struct {
		URL  string `json:"url"`
		Name string `json:"bundle_name"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("interpretar lista de bundles: %w", err)
	}

	bundles := make([]Bundle, 0, len(listing))
	for _, item := range listing {
		bundle := Bundle{Name: item.Name, URL: item.URL}

		page, err := h.client.Get(ctx, item.URL, acceptHTML)
		if err != nil {
			h.log.Warn("Erro ao buscar página do bundle", "bundle", item.Name, "error", err)
			bundles = append(bundles, bundle)
			continue
		}

		tiers, err := ParseBundleTiers(bytes.NewReader(page))
		if err != nil {
			h.log.Warn("Erro ao interpretar página do bundle", "bundle", item.Name, "error", err)
		}
		bundle.Tiers = h.resolve(ctx, tiers)
		bundles = append(bundles, bundle)
	}

	return bundles, nil
}

func (h *Humble) resolve(ctx context.Context, tiers []Tier) []Tier {
	var ids []string
	for ti := range tiers {
		for gi := range tiers[ti].Games {
			g := &tiers[ti].Games[gi]
			res, err := h.search.Find(ctx, g.Name)
			if err != nil {
				h.log.Debug("Jogo do bundle não encontrado na Steam", "name", g.Name, "error", err)
				continue
			}
			g.ID = res.ID
			g.Link = res.Link
			ids = append(ids, res.ID)
		}
	}

	if len(ids) == 0 || h.history == nil || !h.history.Enabled() {
		return tiers
	}

	histories, err := h.history.LowestPrices(ctx, ids)
	if err != nil {
		h.log.Warn("Erro ao buscar histórico de preços dos bundles", "error", err)
		return tiers
	}

	byID := make(map[string]*models.PriceHistory, len(histories))
	for i := range histories {
		byID[histories[i].GameID] = &histories[i]
	}
	for ti := range tiers {
		for gi := range tiers[ti].Games {
			g := &tiers[ti].Games[gi]
			if d, ok := byID[g.ID]; ok {
				g.Deal = d
			}
		}
	}
	return tiers
}

// ParseBundleTiers extrai as faixas de preço e os nomes dos jogos da página de um bundle
func ParseBundleTiers(r io.Reader) ([]Tier, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var tiers []Tier
	doc.Find("div.main-content-row.dd-game-row.js-nav-row").Each(func(i int, row *goquery.Selection) {
		tier := Tier{Price: strings.TrimSpace(row.Find("h2.dd-header-headline").First().Text())}
		row.Find("div.dd-image-box-caption.dd-image-box-text.dd-image-box-white").Each(func(j int, c *goquery.Selection) {
			if name := strings.TrimSpace(c.Text()); name != "" {
				tier.Games = append(tier.Games, BundleGame{Name: name})
			}
		})
		tiers = append(tiers, tier)
	})

	return tiers, nil
}
