package bot

import (
	"context"
	"errors"
	"fmt"

	"steam-dealbot/internal/deals"
	"steam-dealbot/internal/models"
	"steam-dealbot/internal/monitor"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	unlock := b.users.Lock(chatID)
	_, found, err := b.users.Get(ctx, chatID)
	unlock()

	if err != nil {
		b.log.Error("Erro ao ler registro", "chat_id", chatID, "error", err)
		b.sendText(chatID, "❌ Erro ao ler seus dados, tente novamente mais tarde.")
		return
	}

	if found {
		b.sendText(chatID, welcomeText+"\n"+commandsText)
		return
	}

	conv, reply := NewStartConversation(models.NewUserRecord(chatID))
	b.setConversation(chatID, conv)
	if _, err := b.sendReply(chatID, reply); err != nil {
		b.log.Error("Erro ao enviar mensagem", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) finishStart(ctx context.Context, chatID int64, conv *Conversation, progressID int) {
	rec := conv.Record

	refreshErr := b.refresher.RefreshRecord(ctx, rec)
	if refreshErr != nil {
		b.log.Warn("Erro ao inicializar cache", "chat_id", chatID, "username", rec.Username, "error", refreshErr)
	}

	unlock := b.users.Lock(chatID)
	err := b.users.Save(ctx, rec)
	unlock()
	if err != nil {
		b.log.Error("Erro ao salvar registro", "chat_id", chatID, "error", err)
		b.editOrSend(chatID, progressID, "❌ Erro ao salvar seus dados, tente /start novamente.")
		return
	}

	text := fmt.Sprintf("Tudo certo, %s! %s", rec.Username, commandsText)
	if refreshErr != nil {
		text += "\n\n⚠️ Não consegui ler sua wishlist agora. Verifique se ela é pública e use /update."
	}
	b.editOrSend(chatID, progressID, text)
}

func (b *Bot) handleDeals(ctx context.Context, chatID int64) {
	rec := b.loadRecord(ctx, chatID)
	if rec == nil {
		return
	}
	games := deals.UserQuery(rec, false).Run(rec)
	if err := b.notifier.SendDeals(ctx, chatID, games); err != nil {
		b.log.Error("Erro ao enviar promoções", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleAll(ctx context.Context, chatID int64) {
	rec := b.loadRecord(ctx, chatID)
	if rec == nil {
		return
	}
	if err := b.notifier.SendDeals(ctx, chatID, rec.Cache); err != nil {
		b.log.Error("Erro ao enviar promoções", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleUpdate(ctx context.Context, chatID int64) {
	progress, err := b.sendReply(chatID, Reply{Text: "Atualizando cache local... ⏳", RemoveKeyboard: true})
	if err != nil {
		b.log.Error("Erro ao enviar mensagem", "chat_id", chatID, "error", err)
	}

	rec, err := b.refresher.RefreshUser(ctx, chatID)
	switch {
	case errors.Is(err, monitor.ErrUnknownUser):
		b.editOrSend(chatID, progress.MessageID, msgNotConfigured)
	case err != nil:
		b.log.Warn("Erro ao atualizar cache", "chat_id", chatID, "error", err)
		b.editOrSend(chatID, progress.MessageID, "❌ Não consegui ler sua wishlist. Verifique se ela é pública e tente novamente.")
	default:
		b.editOrSend(chatID, progress.MessageID, fmt.Sprintf("Cache local atualizado: %d jogos em promoção", len(rec.Cache)))
	}
}

func (b *Bot) handleSettings(ctx context.Context, chatID int64) {
	rec := b.loadRecord(ctx, chatID)
	if rec == nil {
		return
	}

	conv, reply := NewSettingsConversation(rec)
	b.setConversation(chatID, conv)
	if _, err := b.sendReply(chatID, reply); err != nil {
		b.log.Error("Erro ao enviar mensagem", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) saveSettings(ctx context.Context, chatID int64, conv *Conversation) {
	draft := conv.Record

	// Só usuário e configurações vêm do rascunho; cache e exclusões podem ter mudado na rotina diária
	_, err := b.users.Update(ctx, chatID, func(rec *models.UserRecord) error {
		if err := draft.Configs.Validate(); err != nil {
			return err
		}
		rec.Username = draft.Username
		rec.Configs = draft.Configs
		return nil
	})
	if err != nil {
		b.log.Error("Erro ao salvar configurações", "chat_id", chatID, "error", err)
		b.sendReply(chatID, Reply{Text: "❌ Erro ao salvar as configurações.", RemoveKeyboard: true})
		return
	}
	if _, err := b.sendReply(chatID, Reply{Text: "Configurações salvas.", RemoveKeyboard: true}); err != nil {
		b.log.Error("Erro ao enviar mensagem", "chat_id", chatID, "error", err)
	}

	if conv.UsernameChanged() {
		b.handleUpdate(ctx, chatID)
	}
}

func (b *Bot) handleCustom(ctx context.Context, chatID int64) {
	rec := b.loadRecord(ctx, chatID)
	if rec == nil {
		return
	}

	conv, reply := NewCustomConversation(rec)
	b.setConversation(chatID, conv)
	if _, err := b.sendReply(chatID, reply); err != nil {
		b.log.Error("Erro ao enviar mensagem", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) runCustom(ctx context.Context, chatID int64, conv *Conversation) {
	rec := b.loadRecord(ctx, chatID)
	if rec == nil {
		return
	}
	games := deals.CustomQuery(conv.Params).Run(rec)
	if err := b.notifier.SendDeals(ctx, chatID, games); err != nil {
		b.log.Error("Erro ao enviar promoções", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	rec := b.loadRecord(ctx, chatID)
	if rec == nil {
		return
	}
	b.sendHTML(chatID, FormatStats(rec))
}

func (b *Bot) handleBundles(ctx context.Context, chatID int64) {
	rec := b.loadRecord(ctx, chatID)
	if rec == nil {
		return
	}
	if !rec.Configs.HumbleBundleEnabled {
		b.sendText(chatID, "A listagem da Humble Bundle está desativada. Ative em /settings.")
		return
	}
	if b.bundles == nil {
		b.sendText(chatID, "A listagem da Humble Bundle não está disponível.")
		return
	}

	progress, err := b.api.Send(tgbotapi.NewMessage(chatID, "Buscando bundles ativos... ⏳"))
	if err != nil {
		b.log.Error("Erro ao enviar mensagem", "chat_id", chatID, "error", err)
	}

	bundles, err := b.bundles.ActiveBundles(ctx)
	if err != nil {
		b.log.Warn("Erro ao buscar bundles", "chat_id", chatID, "error", err)
		b.editOrSend(chatID, progress.MessageID, "❌ Não consegui buscar os bundles da Humble Bundle.")
		return
	}
	if len(bundles) == 0 {
		b.editOrSend(chatID, progress.MessageID, "Nenhum bundle ativo no momento")
		return
	}

	b.editOrSend(chatID, progress.MessageID, fmt.Sprintf("%d bundles ativos:", len(bundles)))
	for _, bundle := range bundles {
		b.sendHTML(chatID, FormatBundle(bundle))
	}
}
