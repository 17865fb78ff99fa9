package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"steam-dealbot/internal/httpclient"

	"github.com/PuerkitoBio/goquery"
	"github.com/agnivade/levenshtein"
)

// DefaultStoreURL é a base da loja Steam
const DefaultStoreURL = "https://store.steampowered.com"

// maxNameDistance é a distância de edição máxima (exclusiva) para aceitar um resultado de busca
const maxNameDistance = 4

var spaces = regexp.MustCompile(`\s+`)

// SteamSearch encontra o jogo da loja Steam correspondente a um nome
type SteamSearch struct {
	client  *httpclient.Client
	baseURL string
}

// NewSteamSearch cria uma nova busca na loja Steam
func NewSteamSearch(client *httpclient.Client, baseURL string) *SteamSearch {
	if baseURL == "" {
		baseURL = DefaultStoreURL
	}
	return &SteamSearch{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// SearchResult é um jogo encontrado na busca
type SearchResult struct {
	ID   string
	Link string
	Name string
}

// Find busca o nome na loja e retorna o resultado mais parecido
func (s *SteamSearch) Find(ctx context.Context, name string) (SearchResult, error) {
	query := cleanGameName(name)
	searchURL := s.baseURL + "/search/?term=" + url.QueryEscape(query)

	body, err := s.client.Get(ctx, searchURL, acceptHTML)
	if err != nil {
		return SearchResult{}, fmt.Errorf("buscar %q na Steam: %w", query, err)
	}

	return BestMatch(bytes.NewReader(body), query)
}

// BestMatch escolhe, na página de resultados, o jogo com menor distância de edição até o nome
func BestMatch(r io.Reader, name string) (SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return SearchResult{}, err
	}

	name = cleanGameName(name)
	best := SearchResult{}
	bestDistance := -1

	doc.Find("#search_result_container a").EachWithBreak(func(i int, a *goquery.Selection) bool {
		title := a.Find("div.search_name span.title").First()
		if title.Length() == 0 {
			title = a.Find("div.search_name span").First()
		}
		if title.Length() == 0 {
			return true
		}

		link, _ := a.Attr("href")
		resultName := spaces.ReplaceAllString(strings.TrimSpace(title.Text()), " ")
		distance := levenshtein.ComputeDistance(name, resultName)

		if bestDistance < 0 || distance < bestDistance {
			best = SearchResult{Link: link, Name: resultName}
			bestDistance = distance
		}
		return distance != 0
	})

	if bestDistance < 0 || bestDistance >= maxNameDistance {
		return SearchResult{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	id, err := GameID(best.Link)
	if err != nil {
		return SearchResult{}, err
	}
	best.ID = id
	return best, nil
}

func cleanGameName(name string) string {
	name = spaces.ReplaceAllString(strings.TrimSpace(name), " ")
	return strings.TrimSuffix(name, " Standard Edition")
}
