package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/template/html/v2"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/latestcomment/go-moderated-chat/internal/auth"
	"github.com/latestcomment/go-moderated-chat/internal/clock"
	"github.com/latestcomment/go-moderated-chat/internal/config"
	"github.com/latestcomment/go-moderated-chat/internal/handlers"
	"github.com/latestcomment/go-moderated-chat/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var envFile, addr string
	flagSet := pflag.NewFlagSet("chat-server", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")
	flagSet.StringVar(&addr, "addr", "", "listen address (overrides CHAT_ADDR)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	checker, err := auth.NewSecretChecker(cfg.ModeratorSecret, bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	engine := services.NewEngine(services.Options{
		ModerationWindow: cfg.ModerationWindow,
		Cooldown:         cfg.MessageCooldown,
		MaxNameLength:    cfg.MaxNameLength,
		MaxMessageLength: cfg.MaxMessageLength,
		HistoryLimit:     cfg.HistoryLimit,
		KickCloseDelay:   cfg.KickCloseDelay,
	}, checker, clock.Real(), log)

	app := fiber.New(fiber.Config{
		Views:                 html.New(cfg.StaticDir, ".html"),
		DisableStartupMessage: true,
	})
	app.Use(logger.New())

	h := handlers.NewHandler(engine, checker, cfg.MaxNameLength)
	ws := handlers.NewWebSocketHandler(engine, log, cfg.SendBuffer)
	handlers.Routes(app, h, ws)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("chat server listening", "addr", cfg.Addr,
			"moderation_window", cfg.ModerationWindow, "cooldown", cfg.MessageCooldown)
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		engine.Shutdown()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", "error", err)
	}
	engine.Shutdown()
	return nil
}
