package scraper

import (
	"context"
	"errors"
)

// ErrNotFound indica que o item procurado não existe na loja
var ErrNotFound = errors.New("não encontrado na loja")

// RawEntry é uma linha da wishlist como aparece na página, sem conversão
type RawEntry struct {
	Name          string
	OriginalPrice string
	Price         string
	Discount      string
	Link          string
	Discounted    bool // A linha exibe um preço promocional
}

// WishlistSource define a interface para fontes de wishlist de diferentes lojas
type WishlistSource interface {
	Fetch(ctx context.Context, username string) ([]RawEntry, error)
}
