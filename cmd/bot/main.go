package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"steam-dealbot/config"
	"steam-dealbot/internal/bot"
	"steam-dealbot/internal/database"
	"steam-dealbot/internal/httpclient"
	"steam-dealbot/internal/metrics"
	"steam-dealbot/internal/monitor"
	"steam-dealbot/internal/pricehistory"
	"steam-dealbot/internal/scraper"
	"steam-dealbot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Carregar variáveis de ambiente
	envErr := godotenv.Load()

	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatal("Erro ao carregar configurações", "error", err)
	}

	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Info("Arquivo .env não encontrado, usando variáveis de ambiente do sistema")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Inicializar armazenamento
	store, err := database.Open(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		log.Fatal("Erro ao inicializar armazenamento", "driver", cfg.StorageDriver, "path", cfg.StoragePath, "error", err)
	}
	defer store.Close()
	users := database.NewUsers(store, log)

	// Inicializar bot do Telegram
	telegramBot, err := bot.Init(cfg.TelegramBotToken, log)
	if err != nil {
		log.Fatal("Erro ao inicializar bot do Telegram", "error", err)
	}

	// Métricas
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)
	if cfg.MetricsAddr != "" {
		go func() {
			log.Info("Servindo métricas", "addr", cfg.MetricsAddr)
			if err := metrics.Serve(ctx, cfg.MetricsAddr, registry); err != nil {
				log.Error("Erro no servidor de métricas", "error", err)
			}
		}()
	}

	// Inicializar scrapers e histórico de preços
	client := httpclient.New(cfg.HTTPTimeout, cfg.HTTPRetries, httpclient.WithAcceptLanguage("it-IT,it;q=0.9,en;q=0.8"))
	itad := pricehistory.New(client, cfg.ITADAPIKey, log, pricehistory.WithCountry(cfg.ITADCountry))
	if !itad.Enabled() {
		log.Info("ITAD_API_KEY não configurada, histórico de preços desativado")
	}

	wishlist := scraper.NewSteamWishlist(client, scraper.DefaultCommunityURL)
	search := scraper.NewSteamSearch(client, scraper.DefaultStoreURL)
	humble := scraper.NewHumble(client, scraper.DefaultHumbleServiceURL, search, itad, log)

	// Criar gerenciador de monitoramento
	refresher := monitor.NewRefresher(wishlist, itad, m, log)
	notifier := bot.NewNotifier(telegramBot, log)
	monitorInstance := monitor.New(users, refresher, notifier, m, log,
		monitor.WithSchedule(cfg.UpdateHour, cfg.UpdateMinute),
		monitor.WithWorkers(cfg.Workers),
	)

	// Iniciar rotina diária em background
	if cfg.DailyUpdateEnabled() {
		go monitorInstance.Start(ctx)
	} else {
		log.Warn("Horário de atualização inválido, rotina diária desativada", "hour", cfg.UpdateHour, "minute", cfg.UpdateMinute)
	}

	// Configurar comandos do bot
	b := bot.New(telegramBot, users, monitorInstance, notifier, log,
		bot.WithBundles(humble),
		bot.WithAuthorization(cfg.ChatAllowed),
	)
	if err := b.SetupCommands(); err != nil {
		log.Warn("Erro ao registrar comandos no Telegram", "error", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := telegramBot.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		telegramBot.StopReceivingUpdates()
	}()

	log.Info("Bot iniciado, aguardando mensagens")
	b.Run(ctx, updates)

	log.Info("Encerrando bot...")
}
