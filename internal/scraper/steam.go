package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"steam-dealbot/internal/httpclient"

	"github.com/PuerkitoBio/goquery"
)

// DefaultCommunityURL é a base das páginas de perfil da Steam
const DefaultCommunityURL = "https://steamcommunity.com"

const acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// SteamWishlist lê a wishlist pública de um usuário da Steam
type SteamWishlist struct {
	client  *httpclient.Client
	baseURL string
}

// NewSteamWishlist cria uma nova instância do scraper da wishlist
func NewSteamWishlist(client *httpclient.Client, baseURL string) *SteamWishlist {
	if baseURL == "" {
		baseURL = DefaultCommunityURL
	}
	return &SteamWishlist{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// WishlistURL retorna o endereço da wishlist de um usuário
func (s *SteamWishlist) WishlistURL(username string) string {
	return fmt.Sprintf("%s/id/%s/wishlist", s.baseURL, url.PathEscape(username))
}

// Fetch busca e interpreta a wishlist do usuário
func (s *SteamWishlist) Fetch(ctx context.Context, username string) ([]RawEntry, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("usuário da Steam vazio")
	}

	body, err := s.client.Get(ctx, s.WishlistURL(username), acceptHTML)
	if err != nil {
		return nil, fmt.Errorf("buscar wishlist de %s: %w", username, err)
	}

	entries, err := ParseWishlist(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("interpretar wishlist de %s: %w", username, err)
	}
	return entries, nil
}

// ParseWishlist extrai as linhas da página da wishlist
func ParseWishlist(r io.Reader) ([]RawEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var entries []RawEntry
	doc.Find("div.wishlistRowItem").Each(func(i int, row *goquery.Selection) {
		entry := RawEntry{
			Name: firstText(row, "h4.ellipsis", ".title"),
			Link: firstAttr(row, "href", "a.storepage_btn_alt", "a.title", "a.capsule"),
		}

		final := row.Find("div.discount_final_price").First()
		if final.Length() > 0 {
			entry.Discounted = true
			entry.Price = strings.TrimSpace(final.Text())
			entry.OriginalPrice = firstText(row, "div.discount_original_price")
			entry.Discount = firstText(row, "div.discount_pct")
		} else {
			entry.Price = firstText(row, "div.price")
			entry.OriginalPrice = entry.Price
		}

		entries = append(entries, entry)
	})

	return entries, nil
}

func firstText(s *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(s.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(s *goquery.Selection, attr string, selectors ...string) string {
	for _, selector := range selectors {
		if v, ok := s.Find(selector).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
