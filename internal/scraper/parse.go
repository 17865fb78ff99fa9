package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"steam-dealbot/internal/models"

	"github.com/shopspring/decimal"
)

// ParsePrice converte um preço da loja em decimal.
// Aceita "," ou "." como separador decimal, ignora símbolos de moeda
// e trata "-" como zero ("19,--€" vira 19.00, "-" vira 0).
func ParsePrice(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)

	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-':
			b.WriteRune('0')
		}
	}

	clean := b.String()
	if clean == "" {
		return decimal.Zero, fmt.Errorf("preço vazio: %q", s)
	}

	clean = normalizeSeparators(clean)

	price, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("erro ao parsear preço %q: %w", s, err)
	}
	return price, nil
}

// O último separador encontrado é o decimal; os demais são de milhar
func normalizeSeparators(s string) string {
	last := strings.LastIndexAny(s, ".,")
	if last < 0 {
		return s
	}

	intPart := strings.NewReplacer(".", "", ",", "").Replace(s[:last])
	frac := s[last+1:]

	if intPart == "" {
		intPart = "0"
	}
	if frac == "" {
		return intPart
	}
	return intPart + "." + frac
}

// ParseDiscount converte o texto de desconto ("-75%") em um percentual de 0 a 100
func ParseDiscount(s string) (int, error) {
	raw := strings.TrimSpace(s)
	if raw == "-" {
		return 0, nil
	}

	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("desconto vazio: %q", s)
	}

	v, err := decimal.NewFromString(strings.ReplaceAll(b.String(), ",", "."))
	if err != nil {
		return 0, fmt.Errorf("erro ao parsear desconto %q: %w", s, err)
	}
	return models.ClampPercent(int(v.IntPart())), nil
}

// GameID extrai o identificador do jogo do link da loja:
// https://store.steampowered.com/app/12345/Nome/ vira "app/12345"
func GameID(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("link inválido %q: %w", link, err)
	}

	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return "", fmt.Errorf("link sem identificador de jogo: %q", link)
	}
	return parts[0] + "/" + parts[1], nil
}

// ParseEntry converte uma linha da wishlist em um Game sem histórico de preços.
// Se o desconto não puder ser lido, ele é calculado a partir dos preços.
func ParseEntry(e RawEntry) (models.Game, error) {
	id, err := GameID(e.Link)
	if err != nil {
		return models.Game{}, err
	}

	original, err := ParsePrice(e.OriginalPrice)
	if err != nil {
		return models.Game{}, fmt.Errorf("%s: preço original: %w", id, err)
	}

	price, err := ParsePrice(e.Price)
	if err != nil {
		return models.Game{}, fmt.Errorf("%s: preço atual: %w", id, err)
	}

	cut, err := ParseDiscount(e.Discount)
	if err != nil {
		cut = models.DiscountPercent(original, price)
	}

	return models.Game{
		ID:            id,
		OriginalPrice: original,
		Price:         price,
		Cut:           cut,
		Link:          strings.TrimSpace(e.Link),
		Name:          strings.TrimSpace(e.Name),
	}, nil
}
