package bot

import (
	"fmt"
	"strings"

	"steam-dealbot/internal/models"
	"steam-dealbot/internal/scraper"
)

const welcomeText = "Olá! Eu acompanho sua wishlist da Steam e aviso quando um jogo que você quer entra em uma boa promoção."

const commandsText = "Vou te avisar todos os dias quando surgirem novas promoções. " +
	"Você também pode listar suas /deals, ver todo o /all cache, " +
	"fazer consultas personalizadas com /custom, /update para atualizar as promoções, " +
	"alterar as /settings, ver os /bundles da Humble Bundle ou algumas /stats.\n" +
	"(Lembre-se: sua wishlist da Steam precisa ser pública para que eu consiga lê-la!)"

const helpText = `🤖 <b>Bot de Promoções da Steam</b>

<b>Comandos disponíveis:</b>

<b>/start</b> - Configurar sua conta
<b>/deals</b> - Listar as promoções que atendem às suas configurações
<b>/all</b> - Listar todos os jogos em promoção da wishlist
<b>/update</b> - Atualizar o cache da wishlist agora
<b>/settings</b> - Alterar usuário e limites
<b>/custom</b> - Consulta com limites temporários
<b>/stats</b> - Mostrar o estado da sua conta
<b>/bundles</b> - Listar os bundles ativos da Humble Bundle
<b>/cancel</b> - Cancelar a operação em andamento
<b>/help</b> - Mostrar esta mensagem de ajuda
`

const (
	msgNotConfigured = "Conta não configurada! Por favor, use o comando /start"
	msgNoDeals       = "Nenhuma promoção disponível no momento"
	msgCanceled      = "Operação cancelada"
	msgUnknown       = "Comando não reconhecido. Use /help para ver os comandos disponíveis."
	msgUnauthorized  = "Você não está autorizado a usar este bot."
)

// escapeHTML escapa caracteres especiais do HTML
func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	text = strings.ReplaceAll(text, "\"", "&quot;")
	return text
}

// FormatGame monta a mensagem de um jogo em promoção
func FormatGame(g models.Game) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎮 <b>%s</b>\n", escapeHTML(g.Name))
	fmt.Fprintf(&b, "💰 Preço: %s€ (%s€ - %d%%)\n", g.Price.StringFixed(2), g.OriginalPrice.StringFixed(2), g.Cut)

	if line := dealLine(g); line != "" {
		b.WriteString(escapeHTML(line))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "🔗 Página da loja: %s", escapeHTML(g.Link))
	return b.String()
}

func dealLine(g models.Game) string {
	if g.Deal == nil {
		return ""
	}
	if g.IsRecommended() {
		return "💰💸 Melhor oferta do mercado, compre agora! 💸💰"
	}

	current, historical := g.Deal.Current, g.Deal.Historical
	switch {
	case current == nil && historical == nil:
		return ""
	case historical == nil:
		return "Menor preço: " + current.String()
	case current == nil:
		return "Menor preço histórico: " + historical.String()
	case current.Price.GreaterThanOrEqual(historical.Price):
		return "Menor preço: " + current.String()
	case current.Shop.ID == models.CanonicalShop:
		return "Menor preço histórico: " + historical.String()
	default:
		return fmt.Sprintf("Menores preços: atual %s, histórico %s", current, historical)
	}
}

// FormatStats monta o resumo de /stats
func FormatStats(rec *models.UserRecord) string {
	s := rec.Stats()
	cfg := rec.Configs

	var b strings.Builder
	b.WriteString("📊 <b>Status do bot</b>\n\n")
	fmt.Fprintf(&b, "usuário = %s\n", escapeHTML(rec.Username))
	fmt.Fprintf(&b, "preço máximo = %s€\n", cfg.MaxPrice.String())
	fmt.Fprintf(&b, "desconto para jogos baratos = %d%%\n", cfg.LowPriceMinDiscount)
	fmt.Fprintf(&b, "desconto mínimo = %d%%\n", cfg.MinDiscount)
	fmt.Fprintf(&b, "melhores ofertas = %s\n", onOff(cfg.ShowBestDeals))
	fmt.Fprintf(&b, "Humble Bundle = %s\n", onOff(cfg.HumbleBundleEnabled))
	fmt.Fprintf(&b, "\njogos em cache = %d\n", s.CachedGames)
	fmt.Fprintf(&b, "jogos com histórico de preço = %d\n", s.WithHistory)
	fmt.Fprintf(&b, "melhores ofertas do mercado = %d\n", s.Recommended)
	fmt.Fprintf(&b, "jogos já notificados = %d\n", s.Excluded)
	if s.Cheapest != nil {
		fmt.Fprintf(&b, "maior desconto = %d%%\n", s.BestCut)
		fmt.Fprintf(&b, "mais barato = %s (%s€)\n", escapeHTML(s.Cheapest.Name), s.Cheapest.Price.StringFixed(2))
	}
	return b.String()
}

// FormatBundle monta a mensagem de um bundle da Humble Bundle
func FormatBundle(bundle scraper.Bundle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 <b>%s</b>\n%s\n", escapeHTML(bundle.Name), escapeHTML(bundle.URL))

	for _, tier := range bundle.Tiers {
		fmt.Fprintf(&b, "\n<i>%s</i>\n", escapeHTML(tier.Price))
		for _, g := range tier.Games {
			if g.Link == "" {
				fmt.Fprintf(&b, "• %s\n", escapeHTML(g.Name))
				continue
			}
			fmt.Fprintf(&b, "• <a href=\"%s\">%s</a>", escapeHTML(g.Link), escapeHTML(g.Name))
			if g.Deal != nil && g.Deal.Current != nil {
				fmt.Fprintf(&b, " (menor preço: %s)", escapeHTML(g.Deal.Current.String()))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
