package bot

import (
	"context"
	"fmt"

	"steam-dealbot/internal/models"
	"steam-dealbot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier envia listas de promoções, uma mensagem por jogo
type Notifier struct {
	api Sender
	log *logger.Logger
}

// NewNotifier cria o notificador
func NewNotifier(api Sender, log *logger.Logger) *Notifier {
	return &Notifier{api: api, log: log}
}

// NotifyDeals envia cada jogo da lista; a entrega falha se algum envio falhar
func (n *Notifier) NotifyDeals(ctx context.Context, chatID int64, games []models.Game) error {
	for _, g := range games {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sendHTML(n.api, chatID, FormatGame(g)); err != nil {
			return fmt.Errorf("enviar %s para %d: %w", g.ID, chatID, err)
		}
	}
	n.log.Debug("Promoções enviadas", "chat_id", chatID, "games", len(games))
	return nil
}

// SendDeals é como NotifyDeals, mas avisa quando a lista está vazia
func (n *Notifier) SendDeals(ctx context.Context, chatID int64, games []models.Game) error {
	if len(games) == 0 {
		_, err := n.api.Send(tgbotapi.NewMessage(chatID, msgNoDeals))
		return err
	}
	return n.NotifyDeals(ctx, chatID, games)
}
