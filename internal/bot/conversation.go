package bot

import (
	"fmt"
	"strings"

	"steam-dealbot/internal/deals"
	"steam-dealbot/internal/models"
)

// Action é o efeito colateral que o bot executa ao fim de uma conversa
type Action int

const (
	ActionNone Action = iota
	ActionFinishStart
	ActionSaveSettings
	ActionRunCustom
	ActionCancel
)

// Reply é a resposta de um passo da conversa; Text vazio não gera mensagem
type Reply struct {
	Text           string
	Keyboard       [][]string
	RemoveKeyboard bool
	Action         Action
	Done           bool
}

type convKind int

const (
	kindStart convKind = iota + 1
	kindSettings
	kindCustom
)

type convState int

const (
	stateAskUsername convState = iota + 1
	stateConfirmUsername
	stateSettingsMenu
	stateSettingsValue
	stateCustomMenu
	stateCustomPick
	stateCustomValue
)

type field int

const (
	fieldNone field = iota
	fieldUsername
	fieldMaxPrice
	fieldMinDiscount
	fieldLowPriceDiscount
)

// Opções dos teclados
const (
	optYes              = "Sim"
	optNo               = "Não"
	optCancel           = "Cancelar"
	optDone             = "Concluir"
	optUsername         = "Usuário"
	optMaxPrice         = "Preço máximo"
	optMinDiscount      = "Desconto mínimo"
	optLowPriceDiscount = "Desconto para jogos baratos"
	optBestDeals        = "Melhores ofertas"
	optHumble           = "Humble Bundle"
	optModify           = "Alterar parâmetro"
	optResults          = "Ver resultados"
)

// Conversation guarda o estado de um diálogo de várias mensagens com um chat.
// Nada é persistido aqui: o bot aplica Record ou Params quando a ação final chega.
type Conversation struct {
	kind  convKind
	state convState
	field field

	// Rascunho do registro em /start e /settings
	Record           *models.UserRecord
	originalUsername string

	// Limites temporários de /custom
	Params deals.Params
}

// NewStartConversation pergunta o usuário da Steam para um registro novo
func NewStartConversation(rec *models.UserRecord) (*Conversation, Reply) {
	c := &Conversation{kind: kindStart, state: stateAskUsername, Record: rec}
	return c, Reply{
		Text: welcomeText + "\n\nPrimeiro me diga seu usuário da Steam (o ID da conta) " +
			"e verifique se sua wishlist está pública.",
		RemoveKeyboard: true,
	}
}

// NewSettingsConversation edita uma cópia do registro
func NewSettingsConversation(rec *models.UserRecord) (*Conversation, Reply) {
	c := &Conversation{
		kind:             kindSettings,
		state:            stateSettingsMenu,
		Record:           rec.Clone(),
		originalUsername: rec.Username,
	}
	return c, c.settingsMenu("")
}

// NewCustomConversation parte da configuração salva do usuário
func NewCustomConversation(rec *models.UserRecord) (*Conversation, Reply) {
	c := &Conversation{
		kind:   kindCustom,
		state:  stateCustomMenu,
		Params: deals.ParamsFromConfig(rec.Configs),
	}
	return c, c.customMenu("")
}

// UsernameChanged indica se /settings alterou o usuário da Steam
func (c *Conversation) UsernameChanged() bool {
	return c.kind == kindSettings && c.Record.Username != c.originalUsername
}

// Handle avança a conversa com a mensagem recebida
func (c *Conversation) Handle(text string) Reply {
	text = strings.TrimSpace(text)

	switch c.state {
	case stateAskUsername:
		return c.askUsername(text)
	case stateConfirmUsername:
		return c.confirmUsername(text)
	case stateSettingsMenu:
		return c.settingsChoice(text)
	case stateSettingsValue:
		return c.settingsValue(text)
	case stateCustomMenu:
		return c.customChoice(text)
	case stateCustomPick:
		return c.customPick(text)
	case stateCustomValue:
		return c.customValue(text)
	default:
		return Reply{Text: "Operação cancelada", RemoveKeyboard: true, Action: ActionCancel, Done: true}
	}
}

func (c *Conversation) askUsername(text string) Reply {
	if text == "" {
		return Reply{Text: "Qual é o seu usuário da Steam?"}
	}
	c.Record.Username = text
	c.state = stateConfirmUsername
	return Reply{
		Text:     fmt.Sprintf("Tem certeza? \"%s\" está correto?", text),
		Keyboard: [][]string{{optYes}, {optNo}},
	}
}

func (c *Conversation) confirmUsername(text string) Reply {
	switch strings.ToLower(text) {
	case "sim", "s", "yes", "y":
		return Reply{Text: "Inicializando cache... ⏳", RemoveKeyboard: true, Action: ActionFinishStart, Done: true}
	case "não", "nao", "n", "no":
		c.state = stateAskUsername
		return Reply{Text: "Ok, qual é o seu usuário da Steam então?", RemoveKeyboard: true}
	}
	return Reply{
		Text:     "Não entendi, tem certeza? (Sim/Não)",
		Keyboard: [][]string{{optYes}, {optNo}},
	}
}

func (c *Conversation) settingsMenu(prefix string) Reply {
	cfg := c.Record.Configs
	text := prefix + fmt.Sprintf(
		"Usuário da Steam: %s\nDesconto mínimo: %d%%\nPreço máximo: %s€\n"+
			"Desconto mínimo para jogos baratos: %d%%\nMelhores ofertas: %s\nHumble Bundle: %s\n"+
			"O que você quer alterar?",
		c.Record.Username, cfg.MinDiscount, cfg.MaxPrice.String(), cfg.LowPriceMinDiscount,
		onOff(cfg.ShowBestDeals), onOff(cfg.HumbleBundleEnabled),
	)

	c.state = stateSettingsMenu
	c.field = fieldNone
	return Reply{
		Text: text,
		Keyboard: [][]string{
			{optMinDiscount, optMaxPrice},
			{optLowPriceDiscount},
			{optBestDeals, optHumble},
			{optUsername},
			{optDone, optCancel},
		},
	}
}

func (c *Conversation) settingsChoice(text string) Reply {
	switch {
	case strings.EqualFold(text, optDone):
		return Reply{Action: ActionSaveSettings, Done: true}
	case strings.EqualFold(text, optCancel):
		return Reply{Text: "Operação cancelada", RemoveKeyboard: true, Action: ActionCancel, Done: true}
	case strings.EqualFold(text, optBestDeals):
		c.Record.Configs.ShowBestDeals = !c.Record.Configs.ShowBestDeals
		return c.settingsMenu("")
	case strings.EqualFold(text, optHumble):
		c.Record.Configs.HumbleBundleEnabled = !c.Record.Configs.HumbleBundleEnabled
		return c.settingsMenu("")
	}

	f := parseField(text, true)
	if f == fieldNone {
		return c.settingsMenu("Opção desconhecida.\n\n")
	}

	c.field = f
	c.state = stateSettingsValue
	return Reply{
		Text:     fmt.Sprintf("Valor atual: %s, informe o novo valor", c.currentValue()),
		Keyboard: [][]string{{optCancel}},
	}
}

func (c *Conversation) settingsValue(text string) Reply {
	if strings.EqualFold(text, optCancel) {
		return c.settingsMenu("")
	}

	cfg := c.Record.Configs
	switch c.field {
	case fieldUsername:
		if text == "" {
			return Reply{Text: "Valor inválido, informe o novo valor"}
		}
		c.Record.Username = text
		return c.settingsMenu("")
	case fieldMaxPrice:
		v, err := models.ParsePriceInput(text)
		if err != nil {
			return Reply{Text: "Valor inválido, informe o novo valor"}
		}
		cfg.MaxPrice = v
	case fieldMinDiscount, fieldLowPriceDiscount:
		v, err := models.ParsePercentInput(text)
		if err != nil {
			return Reply{Text: "Valor inválido, informe o novo valor"}
		}
		if c.field == fieldMinDiscount {
			cfg.MinDiscount = v
		} else {
			cfg.LowPriceMinDiscount = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return Reply{Text: "Valor inválido, informe o novo valor"}
	}
	c.Record.Configs = cfg
	return c.settingsMenu("")
}

func (c *Conversation) customMenu(prefix string) Reply {
	c.state = stateCustomMenu
	c.field = fieldNone
	return Reply{
		Text: prefix + fmt.Sprintf(
			"Desconto mínimo: %d%%\nPreço máximo: %s€\nDesconto mínimo para jogos baratos: %d%%\n"+
				"O que você quer fazer?",
			c.Params.MinDiscount, c.Params.MaxPrice.String(), c.Params.LowPriceDiscount,
		),
		Keyboard: [][]string{{optModify}, {optResults}, {optCancel}},
	}
}

func (c *Conversation) customChoice(text string) Reply {
	switch {
	case strings.EqualFold(text, optModify):
		c.state = stateCustomPick
		return c.customPickPrompt("Qual parâmetro você quer alterar?")
	case strings.EqualFold(text, optResults):
		return Reply{Text: "Buscando promoções... ⏳", RemoveKeyboard: true, Action: ActionRunCustom, Done: true}
	case strings.EqualFold(text, optCancel):
		return Reply{Text: "Operação cancelada", RemoveKeyboard: true, Action: ActionCancel, Done: true}
	}
	return c.customMenu("Opção desconhecida.\n\n")
}

func (c *Conversation) customPickPrompt(text string) Reply {
	return Reply{
		Text:     text,
		Keyboard: [][]string{{optMaxPrice}, {optLowPriceDiscount}, {optMinDiscount}, {optCancel}},
	}
}

func (c *Conversation) customPick(text string) Reply {
	if strings.EqualFold(text, optCancel) {
		return c.customMenu("Operação cancelada.\n\n")
	}

	f := parseField(text, false)
	if f == fieldNone {
		return c.customPickPrompt("Opção desconhecida, o que você quer alterar?")
	}

	c.field = f
	c.state = stateCustomValue
	return Reply{
		Text:     fmt.Sprintf("Valor atual: %s, informe o novo valor", c.currentValue()),
		Keyboard: [][]string{{optCancel}},
	}
}

func (c *Conversation) customValue(text string) Reply {
	if strings.EqualFold(text, optCancel) {
		c.state = stateCustomPick
		c.field = fieldNone
		return c.customPickPrompt("Qual parâmetro você quer alterar?")
	}

	switch c.field {
	case fieldMaxPrice:
		v, err := models.ParsePriceInput(text)
		if err != nil {
			return Reply{Text: "Valor inválido, informe o novo valor"}
		}
		c.Params.MaxPrice = v
	case fieldMinDiscount:
		v, err := models.ParsePercentInput(text)
		if err != nil {
			return Reply{Text: "Valor inválido, informe o novo valor"}
		}
		c.Params.MinDiscount = v
	case fieldLowPriceDiscount:
		v, err := models.ParsePercentInput(text)
		if err != nil {
			return Reply{Text: "Valor inválido, informe o novo valor"}
		}
		c.Params.LowPriceDiscount = v
	}

	return c.customMenu("")
}

func (c *Conversation) currentValue() string {
	switch c.kind {
	case kindSettings:
		cfg := c.Record.Configs
		switch c.field {
		case fieldUsername:
			return c.Record.Username
		case fieldMaxPrice:
			return cfg.MaxPrice.String() + "€"
		case fieldMinDiscount:
			return fmt.Sprintf("%d%%", cfg.MinDiscount)
		case fieldLowPriceDiscount:
			return fmt.Sprintf("%d%%", cfg.LowPriceMinDiscount)
		}
	case kindCustom:
		switch c.field {
		case fieldMaxPrice:
			return c.Params.MaxPrice.String() + "€"
		case fieldMinDiscount:
			return fmt.Sprintf("%d%%", c.Params.MinDiscount)
		case fieldLowPriceDiscount:
			return fmt.Sprintf("%d%%", c.Params.LowPriceDiscount)
		}
	}
	return ""
}

func parseField(text string, allowUsername bool) field {
	switch {
	case strings.EqualFold(text, optMaxPrice):
		return fieldMaxPrice
	case strings.EqualFold(text, optMinDiscount):
		return fieldMinDiscount
	case strings.EqualFold(text, optLowPriceDiscount):
		return fieldLowPriceDiscount
	case allowUsername && strings.EqualFold(text, optUsername):
		return fieldUsername
	}
	return fieldNone
}

func onOff(v bool) string {
	if v {
		return "ativado"
	}
	return "desativado"
}
