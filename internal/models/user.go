package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Valores padrão de um usuário novo
const (
	DefaultUsername            = "gabelogannewell"
	DefaultMinDiscount         = 75
	DefaultLowPriceMinDiscount = 50
	DefaultShowBestDeals       = true
	DefaultHumbleBundle        = false
)

// DefaultMaxPrice é o preço máximo padrão
var DefaultMaxPrice = decimal.NewFromInt(5)

// ErrInvalidValue indica um valor de configuração digitado pelo usuário que não pôde ser aceito
var ErrInvalidValue = errors.New("valor inválido")

var validate = validator.New()

// UserConfig contém os limites usados para decidir quais promoções notificar
type UserConfig struct {
	MaxPrice            decimal.Decimal `json:"max_price"`
	MinDiscount         int             `json:"min_discount" validate:"gte=0,lte=100"`
	LowPriceMinDiscount int             `json:"low_price_min_discount" validate:"gte=0,lte=100"`
	ShowBestDeals       bool            `json:"show_best_deals"`
	HumbleBundleEnabled bool            `json:"humble_bundle_enabled"`
}

// DefaultUserConfig retorna a configuração padrão
func DefaultUserConfig() UserConfig {
	return UserConfig{
		MaxPrice:            DefaultMaxPrice,
		MinDiscount:         DefaultMinDiscount,
		LowPriceMinDiscount: DefaultLowPriceMinDiscount,
		ShowBestDeals:       DefaultShowBestDeals,
		HumbleBundleEnabled: DefaultHumbleBundle,
	}
}

// UnmarshalJSON parte da configuração padrão, então campos ausentes ficam com o valor padrão
func (c *UserConfig) UnmarshalJSON(data []byte) error {
	type plain UserConfig
	p := plain(DefaultUserConfig())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = UserConfig(p)
	return nil
}

// Validate verifica os intervalos de cada campo
func (c UserConfig) Validate() error {
	if c.MaxPrice.IsNegative() {
		return fmt.Errorf("%w: preço máximo negativo", ErrInvalidValue)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}

func (c UserConfig) String() string {
	return fmt.Sprintf(
		"Preço máximo: %s€, Desconto mínimo: %d%%, Desconto mínimo para jogos baratos: %d%%, melhores ofertas %s, Humble Bundle %s",
		c.MaxPrice.String(), c.MinDiscount, c.LowPriceMinDiscount,
		onOff(c.ShowBestDeals), onOff(c.HumbleBundleEnabled),
	)
}

func onOff(v bool) string {
	if v {
		return "ativado"
	}
	return "desativado"
}

// ParsePriceInput interpreta um preço digitado pelo usuário, aceitando vírgula ou ponto
func ParsePriceInput(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "€"))
	v, err := decimal.NewFromString(strings.ReplaceAll(text, ",", "."))
	if err != nil || v.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidValue, text)
	}
	return v, nil
}

// ParsePercentInput interpreta um percentual digitado pelo usuário; casas decimais são truncadas
func ParsePercentInput(text string) (int, error) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	v, err := decimal.NewFromString(strings.ReplaceAll(text, ",", "."))
	if err != nil || v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, text)
	}
	return int(v.IntPart()), nil
}

// Repair troca campos fora do intervalo pelo valor padrão e retorna os nomes dos campos trocados
func (c *UserConfig) Repair() []string {
	def := DefaultUserConfig()
	var fixed []string
	if c.MaxPrice.IsNegative() {
		c.MaxPrice = def.MaxPrice
		fixed = append(fixed, "max_price")
	}
	if c.MinDiscount < 0 || c.MinDiscount > 100 {
		c.MinDiscount = def.MinDiscount
		fixed = append(fixed, "min_discount")
	}
	if c.LowPriceMinDiscount < 0 || c.LowPriceMinDiscount > 100 {
		c.LowPriceMinDiscount = def.LowPriceMinDiscount
		fixed = append(fixed, "low_price_min_discount")
	}
	return fixed
}

// ExcludeEntry registra o preço de um jogo na última notificação
type ExcludeEntry struct {
	GameID string          `json:"game_id"`
	Price  decimal.Decimal `json:"price"`
}

// UserRecord é o registro persistido de um usuário do bot
type UserRecord struct {
	TelegramID  int64          `json:"telegram_id"`
	Username    string         `json:"username"`
	Configs     UserConfig     `json:"configs"`
	ExcludeList []ExcludeEntry `json:"exclude_list"`
	Cache       []Game         `json:"cache"`
}

// NewUserRecord cria o registro padrão para um ID do Telegram
func NewUserRecord(telegramID int64) *UserRecord {
	return &UserRecord{
		TelegramID:  telegramID,
		Username:    DefaultUsername,
		Configs:     DefaultUserConfig(),
		ExcludeList: []ExcludeEntry{},
		Cache:       []Game{},
	}
}

// Normalize troca listas nulas por listas vazias e remove IDs repetidos
func (u *UserRecord) Normalize() {
	if u.ExcludeList == nil {
		u.ExcludeList = []ExcludeEntry{}
	}
	u.SetCache(u.Cache)

	seen := make(map[string]int, len(u.ExcludeList))
	excludes := make([]ExcludeEntry, 0, len(u.ExcludeList))
	for _, e := range u.ExcludeList {
		if i, ok := seen[e.GameID]; ok {
			excludes[i] = e
			continue
		}
		seen[e.GameID] = len(excludes)
		excludes = append(excludes, e)
	}
	u.ExcludeList = excludes
}

// SetCache substitui o cache inteiro, mantendo um jogo por ID
func (u *UserRecord) SetCache(games []Game) {
	if games == nil {
		u.Cache = []Game{}
		return
	}
	u.Cache = DedupGames(games)
}

// ExcludeMap retorna o preço notificado de cada jogo excluído
func (u *UserRecord) ExcludeMap() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(u.ExcludeList))
	for _, e := range u.ExcludeList {
		m[e.GameID] = e.Price
	}
	return m
}

// Clone retorna uma cópia que pode ser alterada sem afetar o original
func (u *UserRecord) Clone() *UserRecord {
	c := *u
	c.ExcludeList = append([]ExcludeEntry{}, u.ExcludeList...)
	c.Cache = append([]Game{}, u.Cache...)
	return &c
}

func (u *UserRecord) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID do Telegram: %d, usuário Steam: %s", u.TelegramID, u.Username)
	fmt.Fprintf(&b, "\nconfigurações: %s", u.Configs)
	fmt.Fprintf(&b, "\nJogos em cache: %d", len(u.Cache))

	if len(u.ExcludeList) == 0 {
		b.WriteString("\nNenhum jogo excluído ainda")
		return b.String()
	}

	ids := make([]string, 0, len(u.ExcludeList))
	for _, e := range u.ExcludeList {
		ids = append(ids, e.GameID)
	}
	fmt.Fprintf(&b, "\nIDs excluídos: %s", strings.Join(ids, ", "))
	return b.String()
}

// Stats resume o cache de um usuário
type Stats struct {
	CachedGames int
	Excluded    int
	WithHistory int
	Recommended int
	BestCut     int
	Cheapest    *Game
}

// Stats calcula o resumo do cache
func (u *UserRecord) Stats() Stats {
	s := Stats{CachedGames: len(u.Cache), Excluded: len(u.ExcludeList)}
	for i := range u.Cache {
		g := &u.Cache[i]
		if g.Deal != nil {
			s.WithHistory++
		}
		if g.IsRecommended() {
			s.Recommended++
		}
		if g.Cut > s.BestCut {
			s.BestCut = g.Cut
		}
		if s.Cheapest == nil || g.Price.LessThan(s.Cheapest.Price) {
			s.Cheapest = g
		}
	}
	return s
}
