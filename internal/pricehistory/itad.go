package pricehistory

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"steam-dealbot/internal/httpclient"
	"steam-dealbot/internal/models"
	"steam-dealbot/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.isthereanydeal.com"
	DefaultShop    = models.CanonicalShop
	DefaultCountry = "IT"

	// MaxBatch é o máximo de itens por chamada aceito pela API
	MaxBatch = 25
)

var (
	ErrNoAPIKey       = errors.New("chave da API IsThereAnyDeal não configurada")
	ErrUnknownCountry = errors.New("país sem região conhecida")
)

// Client consulta o IsThereAnyDeal. As regiões são memorizadas por instância.
type Client struct {
	http    *httpclient.Client
	baseURL string
	apiKey  string
	shop    string
	country string
	log     *logger.Logger

	mu      sync.Mutex
	regions map[string]models.Region
}

// Option altera a configuração do Client
type Option func(*Client)

// WithBaseURL troca o endereço da API (usado nos testes)
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithCountry define o país usado para resolver região e preços
func WithCountry(country string) Option {
	return func(c *Client) {
		if country != "" {
			c.country = strings.ToUpper(country)
		}
	}
}

// New cria um cliente do IsThereAnyDeal
func New(http *httpclient.Client, apiKey string, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:    http,
		baseURL: DefaultBaseURL,
		apiKey:  strings.TrimSpace(apiKey),
		shop:    DefaultShop,
		country: DefaultCountry,
		log:     log,
		regions: make(map[string]models.Region),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled indica se há chave de API configurada
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Region resolve a região de preços de um país, consultando a API só na primeira vez
func (c *Client) Region(ctx context.Context, country string) (models.Region, error) {
	country = strings.ToUpper(country)

	c.mu.Lock()
	cached, ok := c.regions[country]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	// Busca fora do lock; chamadas concorrentes podem repetir a consulta
	var resp struct {
		Data map[string]struct {
			Countries []string `json:"countries"`
			Currency  struct {
				Code string `json:"code"`
				Sign string `json:"sign"`
			} `json:"currency"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/v01/web/regions/", nil, &resp); err != nil {
		return models.Region{}, fmt.Errorf("buscar regiões: %w", err)
	}

	names := make([]string, 0, len(resp.Data))
	for name := range resp.Data {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := resp.Data[name]
		for _, cc := range r.Countries {
			if strings.EqualFold(cc, country) {
				region := models.Region{Region: name, Currency: r.Currency.Sign}
				c.mu.Lock()
				c.regions[country] = region
				c.mu.Unlock()
				return region, nil
			}
		}
	}

	return models.Region{}, fmt.Errorf("%w: %s", ErrUnknownCountry, country)
}

// Plains mapeia IDs da Steam para os identificadores internos ("plains") do serviço.
// Lotes que falham são registrados e ignorados.
func (c *Client) Plains(ctx context.Context, ids []string) (map[string]string, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	out := make(map[string]string, len(ids))
	for _, batch := range chunk(ids, MaxBatch) {
		params := url.Values{}
		params.Set("shop", c.shop)
		params.Set("ids", strings.Join(batch, ","))

		var resp struct {
			Data map[string]interface{} `json:"data"`
		}
		if err := c.getJSON(ctx, "/v01/game/plain/id/", params, &resp); err != nil {
			c.log.Warn("Nenhum plain encontrado para o lote", "ids", strings.Join(batch, ","), "error", err)
			continue
		}

		for id, v := range resp.Data {
			if plain, ok := v.(string); ok && plain != "" {
				out[id] = plain
			}
		}
	}

	return out, nil
}

type rawDeal struct {
	Shop     models.Shop      `json:"shop"`
	Price    *decimal.Decimal `json:"price"`
	PriceNew *decimal.Decimal `json:"price_new"`
	Cut      *int             `json:"cut"`
	PriceCut *int             `json:"price_cut"`
}

func (r rawDeal) toPriceDeal(region models.Region) *models.PriceDeal {
	d := &models.PriceDeal{Shop: r.Shop, Region: region}
	switch {
	case r.PriceNew != nil:
		d.Price = *r.PriceNew
	case r.Price != nil:
		d.Price = *r.Price
	default:
		return nil
	}
	switch {
	case r.PriceCut != nil:
		d.Cut = *r.PriceCut
	case r.Cut != nil:
		d.Cut = *r.Cut
	}
	return d
}

// LowestPrices retorna, para cada ID encontrado, o menor preço atual entre as lojas
// e o menor preço histórico. IDs não encontrados ficam de fora do resultado.
func (c *Client) LowestPrices(ctx context.Context, ids []string) ([]models.PriceHistory, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}
	if len(ids) == 0 {
		return nil, nil
	}

	region, err := c.Region(ctx, c.country)
	if err != nil {
		return nil, err
	}

	plains, err := c.Plains(ctx, ids)
	if err != nil {
		return nil, err
	}

	var plainList []string
	seen := make(map[string]bool)
	for _, id := range ids {
		p, ok := plains[id]
		if !ok {
			c.log.Debug("ID não resolvido no IsThereAnyDeal", "game_id", id)
			continue
		}
		if !seen[p] {
			seen[p] = true
			plainList = append(plainList, p)
		}
	}

	current := make(map[string]*models.PriceDeal)
	historical := make(map[string]*models.PriceDeal)

	for _, batch := range chunk(plainList, MaxBatch) {
		cur, hist, err := c.lowest(ctx, region, batch)
		if err != nil {
			c.log.Warn("Erro ao buscar preços do lote", "plains", strings.Join(batch, ","), "error", err)
			continue
		}
		for k, v := range cur {
			current[k] = v
		}
		for k, v := range hist {
			historical[k] = v
		}
	}

	var out []models.PriceHistory
	for _, id := range ids {
		p, ok := plains[id]
		if !ok {
			continue
		}
		hist, ok := historical[p]
		if !ok {
			c.log.Debug("Histórico não encontrado", "game_id", id, "plain", p)
			continue
		}
		out = append(out, models.PriceHistory{
			GameID:     id,
			Plain:      p,
			Country:    c.country,
			Current:    current[p],
			Historical: hist,
		})
	}

	return out, nil
}

func (c *Client) lowest(ctx context.Context, region models.Region, plains []string) (map[string]*models.PriceDeal, map[string]*models.PriceDeal, error) {
	joined := strings.Join(plains, ",")

	var prices struct {
		Data map[string]struct {
			List []rawDeal `json:"list"`
		} `json:"data"`
	}
	params := url.Values{}
	params.Set("plains", joined)
	params.Set("country", c.country)
	if err := c.getJSON(ctx, "/v01/game/prices/"+url.PathEscape(region.Region)+"/", params, &prices); err != nil {
		return nil, nil, fmt.Errorf("preços atuais: %w", err)
	}

	var lowest struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	params = url.Values{}
	params.Set("plains", joined)
	if err := c.getJSON(ctx, "/v01/game/lowest/"+url.PathEscape(region.Region)+"/", params, &lowest); err != nil {
		return nil, nil, fmt.Errorf("menores preços históricos: %w", err)
	}

	current := make(map[string]*models.PriceDeal, len(prices.Data))
	for plain, entry := range prices.Data {
		var best *models.PriceDeal
		for _, raw := range entry.List {
			d := raw.toPriceDeal(region)
			if d == nil {
				continue
			}
			if best == nil || d.Price.LessThan(best.Price) {
				best = d
			}
		}
		if best != nil {
			current[plain] = best
		}
	}

	historical := make(map[string]*models.PriceDeal, len(lowest.Data))
	for plain, msg := range lowest.Data {
		var raw rawDeal
		// Jogos sem histórico vêm como lista vazia
		if err := json.Unmarshal(msg, &raw); err != nil {
			continue
		}
		if d := raw.toPriceDeal(region); d != nil {
			historical[plain] = d
		}
	}

	return current, historical, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := c.http.Get(ctx, u, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("interpretar resposta: %w", err)
	}
	return nil
}

func chunk(items []string, size int) [][]string {
	var out [][]string
	for len(items) > 0 {
		n := size
		if len(items) < n {
			n = len(items)
		}
		out = append(out, items[:n])
		items = items[n:]
	}
	return out
}
