package deals

import (
	"steam-dealbot/internal/models"

	"github.com/shopspring/decimal"
)

// Query descreve uma consulta sobre o cache de um usuário
type Query struct {
	Params        Params
	ApplyExcludes bool
}

// UserQuery usa a configuração salva do usuário
func UserQuery(rec *models.UserRecord, applyExcludes bool) Query {
	return Query{Params: ParamsFromConfig(rec.Configs), ApplyExcludes: applyExcludes}
}

// CustomQuery usa limites temporários, sem aplicar exclusões; nada é persistido
func CustomQuery(p Params) Query {
	return Query{Params: p}
}

// Run avalia o cache do usuário
func (q Query) Run(rec *models.UserRecord) []models.Game {
	var exclude map[string]decimal.Decimal
	if q.ApplyExcludes {
		exclude = rec.ExcludeMap()
	}
	return Evaluate(rec.Cache, q.Params, exclude)
}
