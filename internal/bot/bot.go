package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"steam-dealbot/internal/database"
	"steam-dealbot/internal/models"
	"steam-dealbot/internal/scraper"
	"steam-dealbot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender é a parte da API do Telegram usada pelo bot
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// CacheRefresher atualiza o cache da wishlist de um usuário
type CacheRefresher interface {
	RefreshRecord(ctx context.Context, rec *models.UserRecord) error
	RefreshUser(ctx context.Context, id int64) (*models.UserRecord, error)
}

// BundleSource lista os bundles ativos da Humble Bundle
type BundleSource interface {
	ActiveBundles(ctx context.Context) ([]scraper.Bundle, error)
}

// Init inicializa o bot do Telegram
func Init(token string, log *logger.Logger) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN não configurado. Verifique o arquivo .env")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		if err.Error() == "Unauthorized" {
			return nil, fmt.Errorf("token do Telegram inválido ou expirado. Verifique o TELEGRAM_BOT_TOKEN no arquivo .env. Para obter um token, fale com @BotFather no Telegram")
		}
		return nil, fmt.Errorf("erro ao conectar com Telegram: %w", err)
	}

	api.Debug = false
	log.Info("Bot autorizado", "username", api.Self.UserName)
	return api, nil
}

// Bot atende os comandos e conversas dos usuários
type Bot struct {
	api       Sender
	users     *database.Users
	refresher CacheRefresher
	notifier  *Notifier
	bundles   BundleSource
	allowed   func(chatID int64) bool
	log       *logger.Logger

	mu        sync.Mutex
	convs     map[int64]*Conversation
	chatLocks map[int64]*sync.Mutex
}

// Option configura o bot
type Option func(*Bot)

// WithBundles habilita /bundles
func WithBundles(src BundleSource) Option {
	return func(b *Bot) {
		b.bundles = src
	}
}

// WithAuthorization restringe os chats que podem usar o bot
func WithAuthorization(allowed func(chatID int64) bool) Option {
	return func(b *Bot) {
		b.allowed = allowed
	}
}

// New cria o bot
func New(api Sender, users *database.Users, refresher CacheRefresher, notifier *Notifier, log *logger.Logger, opts ...Option) *Bot {
	b := &Bot{
		api:       api,
		users:     users,
		refresher: refresher,
		notifier:  notifier,
		log:       log,
		convs:     make(map[int64]*Conversation),
		chatLocks: make(map[int64]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetupCommands registra a lista de comandos exibida pelo Telegram
func (b *Bot) SetupCommands() error {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Configurar sua conta"},
		tgbotapi.BotCommand{Command: "deals", Description: "Promoções que atendem às suas configurações"},
		tgbotapi.BotCommand{Command: "all", Description: "Todos os jogos em promoção da wishlist"},
		tgbotapi.BotCommand{Command: "update", Description: "Atualizar o cache da wishlist"},
		tgbotapi.BotCommand{Command: "settings", Description: "Alterar usuário e limites"},
		tgbotapi.BotCommand{Command: "custom", Description: "Consulta com limites temporários"},
		tgbotapi.BotCommand{Command: "stats", Description: "Estado da sua conta"},
		tgbotapi.BotCommand{Command: "bundles", Description: "Bundles ativos da Humble Bundle"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Cancelar a operação em andamento"},
		tgbotapi.BotCommand{Command: "help", Description: "Ajuda"},
	)
	_, err := b.api.Request(cmds)
	return err
}

// Run consome as atualizações até ctx ser cancelado ou o canal fechar.
// Mensagens de chats diferentes são tratadas em paralelo; as de um mesmo chat, em sequência.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}

			chatID := update.Message.Chat.ID
			text := update.Message.Text
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.Handle(ctx, chatID, text)
			}()
		}
	}
}

func (b *Bot) lockChat(chatID int64) func() {
	b.mu.Lock()
	l, ok := b.chatLocks[chatID]
	if !ok {
		l = &sync.Mutex{}
		b.chatLocks[chatID] = l
	}
	b.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (b *Bot) conversation(chatID int64) *Conversation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.convs[chatID]
}

func (b *Bot) setConversation(chatID int64, c *Conversation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c == nil {
		delete(b.convs, chatID)
		return
	}
	b.convs[chatID] = c
}

// parseCommand retorna o comando em minúsculas sem o @nome_do_bot, ou "" se o texto não é um comando
func parseCommand(text string) string {
	parts := strings.Fields(text)
	if len(parts) == 0 || !strings.HasPrefix(parts[0], "/") {
		return ""
	}

	command := strings.ToLower(parts[0])
	if idx := strings.Index(command, "@"); idx > 0 {
		command = command[:idx]
	}
	return command
}

// Handle trata uma mensagem de texto recebida de um chat
func (b *Bot) Handle(ctx context.Context, chatID int64, text string) {
	unlock := b.lockChat(chatID)
	defer unlock()

	command := parseCommand(text)

	// Comandos públicos (não precisam de autorização)
	isPublicCommand := command == "/start" || command == "/help"
	if !isPublicCommand && b.allowed != nil && !b.allowed(chatID) {
		b.sendText(chatID, msgUnauthorized)
		return
	}

	if command == "" {
		conv := b.conversation(chatID)
		if conv == nil {
			b.sendText(chatID, msgUnknown)
			return
		}
		b.advance(ctx, chatID, conv, text)
		return
	}

	// Um novo comando encerra a conversa em andamento
	b.setConversation(chatID, nil)

	switch command {
	case "/help":
		b.sendHTML(chatID, helpText)
	case "/start":
		b.handleStart(ctx, chatID)
	case "/deals":
		b.handleDeals(ctx, chatID)
	case "/all":
		b.handleAll(ctx, chatID)
	case "/update":
		b.handleUpdate(ctx, chatID)
	case "/settings":
		b.handleSettings(ctx, chatID)
	case "/custom":
		b.handleCustom(ctx, chatID)
	case "/stats":
		b.handleStats(ctx, chatID)
	case "/bundles":
		b.handleBundles(ctx, chatID)
	case "/cancel":
		b.sendReply(chatID, Reply{Text: msgCanceled, RemoveKeyboard: true})
	default:
		b.sendText(chatID, msgUnknown)
	}
}

func (b *Bot) advance(ctx context.Context, chatID int64, conv *Conversation, text string) {
	reply := conv.Handle(text)
	if reply.Done {
		b.setConversation(chatID, nil)
	}

	var msg tgbotapi.Message
	if reply.Text != "" {
		var err error
		if msg, err = b.sendReply(chatID, reply); err != nil {
			b.log.Error("Erro ao enviar resposta", "chat_id", chatID, "error", err)
		}
	}

	switch reply.Action {
	case ActionFinishStart:
		b.finishStart(ctx, chatID, conv, msg.MessageID)
	case ActionSaveSettings:
		b.saveSettings(ctx, chatID, conv)
	case ActionRunCustom:
		b.runCustom(ctx, chatID, conv)
	}
}

// loadRecord lê o registro do chat; avisa o usuário e retorna nil se ele não existir
func (b *Bot) loadRecord(ctx context.Context, chatID int64) *models.UserRecord {
	unlock := b.users.Lock(chatID)
	rec, found, err := b.users.Get(ctx, chatID)
	unlock()

	if err != nil {
		b.log.Error("Erro ao ler registro", "chat_id", chatID, "error", err)
		b.sendText(chatID, "❌ Erro ao ler seus dados, tente novamente mais tarde.")
		return nil
	}
	if !found {
		b.sendText(chatID, msgNotConfigured)
		return nil
	}
	return rec
}

func (b *Bot) sendReply(chatID int64, r Reply) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	switch {
	case len(r.Keyboard) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(r.Keyboard))
		for _, row := range r.Keyboard {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
		}
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(rows...)
	case r.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	return b.api.Send(msg)
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error("Erro ao enviar mensagem", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendHTML(chatID int64, text string) {
	if err := sendHTML(b.api, chatID, text); err != nil {
		b.log.Error("Erro ao enviar mensagem", "chat_id", chatID, "error", err)
	}
}

// sendHTML envia com formatação HTML e, se o Telegram recusar, sem formatação
func sendHTML(api Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := api.Send(msg); err != nil {
		msg.ParseMode = ""
		if _, err2 := api.Send(msg); err2 != nil {
			return errors.Join(err, err2)
		}
	}
	return nil
}

// editOrSend troca o texto de uma mensagem de progresso; se não der, envia uma nova
func (b *Bot) editOrSend(chatID int64, messageID int, text string) {
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		if _, err := b.api.Send(edit); err == nil {
			return
		}
	}
	b.sendText(chatID, text)
}
