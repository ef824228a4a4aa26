package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"oscbot/advisor"
	"oscbot/api"
	"oscbot/bot"
	"oscbot/config"
	"oscbot/exchange"
	"oscbot/logger"
	"oscbot/manager"
	"oscbot/notify"
	"oscbot/store"
)

func main() {
	// .env is optional; injected environment variables win either way
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}

	if err := logger.Init(&logger.Config{Level: cfg.LogLevel, FilePath: cfg.LogFile}); err != nil {
		logger.Fatalf("logger setup failed: %v", err)
	}

	logger.Infof("starting oscbot: symbols=%v interval=%s thresholds=%.2f%%/%.2f%%",
		cfg.Symbols, cfg.CheckInterval, cfg.BuyThreshold, cfg.SellThreshold)

	ex := exchange.NewBinance(cfg.BinanceAPIKey, cfg.BinanceSecret, cfg.Testnet)

	var adv *advisor.Advisor
	var advService bot.AdvisorService
	if cfg.AIEnabled {
		adv = advisor.New(cfg.AIAPIURL)
		advService = adv
	}

	trades, err := store.NewTradeStore(cfg.TradeDBPath)
	if err != nil {
		logger.Fatalf("trade store: %v", err)
	}
	defer trades.Close()

	hub := api.NewHub()
	sinks := []bot.EventSink{hub}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			logger.Warnf("telegram notifier disabled: %v", err)
		} else {
			sinks = append(sinks, tg)
		}
	}

	mgr, err := manager.New(cfg, ex, advService, trades, sinks)
	if err != nil {
		logger.Fatalf("manager setup: %v", err)
	}

	server := api.NewServer(mgr, trades, adv, hub, cfg.APIServerPort, cfg.JWTSecret, cfg.AdminPasswordHash)

	server.Start()
	mgr.StartAll()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Infof("received %s, shutting down", sig)

	mgr.StopAll()
	server.Stop()
	logger.Info("shutdown complete")
}
