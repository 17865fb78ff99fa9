package bot

import (
	"testing"

	"steam-dealbot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartConversation(t *testing.T) {
	conv, reply := NewStartConversation(models.NewUserRecord(1))
	assert.Contains(t, reply.Text, "usuário da Steam")

	reply = conv.Handle("  gaben ")
	assert.Contains(t, reply.Text, `"gaben"`)
	assert.Equal(t, [][]string{{optYes}, {optNo}}, reply.Keyboard)
	assert.False(t, reply.Done)

	reply = conv.Handle("talvez")
	assert.Contains(t, reply.Text, "Não entendi")
	assert.False(t, reply.Done)

	reply = conv.Handle("Não")
	assert.False(t, reply.Done)
	conv.Handle("gabe")

	reply = conv.Handle("sim")
	assert.True(t, reply.Done)
	assert.Equal(t, ActionFinishStart, reply.Action)
	assert.Equal(t, "gabe", conv.Record.Username)
}

func TestSettingsConversationEditsCopy(t *testing.T) {
	rec := models.NewUserRecord(1)
	conv, reply := NewSettingsConversation(rec)
	assert.Contains(t, reply.Text, "Preço máximo: 5€")

	reply = conv.Handle("preço máximo")
	assert.Contains(t, reply.Text, "Valor atual: 5€")

	reply = conv.Handle("7,5")
	assert.Contains(t, reply.Text, "Preço máximo: 7.5€")

	conv.Handle(optMinDiscount)
	conv.Handle("90%")
	conv.Handle(optBestDeals)
	conv.Handle(optHumble)

	reply = conv.Handle(optDone)
	assert.True(t, reply.Done)
	assert.Equal(t, ActionSaveSettings, reply.Action)

	assert.True(t, conv.Record.Configs.MaxPrice.Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, 90, conv.Record.Configs.MinDiscount)
	assert.False(t, conv.Record.Configs.ShowBestDeals)
	assert.True(t, conv.Record.Configs.HumbleBundleEnabled)
	assert.False(t, conv.UsernameChanged())

	// O registro original não é alterado
	assert.True(t, rec.Configs.MaxPrice.Equal(models.DefaultMaxPrice))
	assert.Equal(t, models.DefaultMinDiscount, rec.Configs.MinDiscount)
}

func TestSettingsConversationRejectsInvalidValues(t *testing.T) {
	conv, _ := NewSettingsConversation(models.NewUserRecord(1))

	conv.Handle(optLowPriceDiscount)
	for _, bad := range []string{"abc", "150", "-3", ""} {
		reply := conv.Handle(bad)
		assert.Equal(t, "Valor inválido, informe o novo valor", reply.Text, bad)
	}
	assert.Equal(t, models.DefaultLowPriceMinDiscount, conv.Record.Configs.LowPriceMinDiscount)

	reply := conv.Handle(optCancel)
	assert.Contains(t, reply.Text, "O que você quer alterar?")

	conv.Handle(optMaxPrice)
	reply = conv.Handle("-1")
	assert.Equal(t, "Valor inválido, informe o novo valor", reply.Text)
	assert.True(t, conv.Record.Configs.MaxPrice.Equal(models.DefaultMaxPrice))
}

func TestSettingsConversationUsername(t *testing.T) {
	conv, _ := NewSettingsConversation(models.NewUserRecord(1))

	reply := conv.Handle(optUsername)
	assert.Contains(t, reply.Text, models.DefaultUsername)
	conv.Handle("newname")
	assert.True(t, conv.UsernameChanged())

	reply = conv.Handle("whatever")
	assert.Contains(t, reply.Text, "Opção desconhecida")
	assert.False(t, reply.Done)
}

func TestSettingsConversationCancel(t *testing.T) {
	conv, _ := NewSettingsConversation(models.NewUserRecord(1))
	reply := conv.Handle(optCancel)
	assert.True(t, reply.Done)
	assert.Equal(t, ActionCancel, reply.Action)
}

func TestCustomConversation(t *testing.T) {
	rec := models.NewUserRecord(1)
	conv, reply := NewCustomConversation(rec)
	assert.Equal(t, [][]string{{optModify}, {optResults}, {optCancel}}, reply.Keyboard)

	reply = conv.Handle(optModify)
	assert.Contains(t, reply.Text, "Qual parâmetro")

	reply = conv.Handle(optMaxPrice)
	assert.Contains(t, reply.Text, "Valor atual: 5€")

	reply = conv.Handle("dez")
	assert.Equal(t, "Valor inválido, informe o novo valor", reply.Text)

	reply = conv.Handle("20")
	assert.Contains(t, reply.Text, "Preço máximo: 20€")

	conv.Handle(optModify)
	conv.Handle(optMinDiscount)
	for _, bad := range []string{"NaN", "Inf", "101"} {
		reply = conv.Handle(bad)
		assert.Equal(t, "Valor inválido, informe o novo valor", reply.Text, bad)
	}
	assert.Equal(t, models.DefaultMinDiscount, conv.Params.MinDiscount)
	conv.Handle("30")

	reply = conv.Handle(optResults)
	require.True(t, reply.Done)
	assert.Equal(t, ActionRunCustom, reply.Action)

	assert.True(t, conv.Params.MaxPrice.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 30, conv.Params.MinDiscount)
	assert.Equal(t, models.DefaultLowPriceMinDiscount, conv.Params.LowPriceDiscount)
	assert.True(t, conv.Params.IncludeRecommended)

	// Nada é gravado no registro
	assert.True(t, rec.Configs.MaxPrice.Equal(models.DefaultMaxPrice))
}

func TestCustomConversationCancelPaths(t *testing.T) {
	conv, _ := NewCustomConversation(models.NewUserRecord(1))

	conv.Handle(optModify)
	conv.Handle(optLowPriceDiscount)
	reply := conv.Handle(optCancel)
	assert.Contains(t, reply.Text, "Qual parâmetro")

	reply = conv.Handle(optCancel)
	assert.Contains(t, reply.Text, "Operação cancelada")
	assert.False(t, reply.Done)

	reply = conv.Handle("???")
	assert.Contains(t, reply.Text, "Opção desconhecida")

	reply = conv.Handle(optCancel)
	assert.True(t, reply.Done)
	assert.Equal(t, ActionCancel, reply.Action)
}
