package main

import (
	"Easel/ai"
	"Easel/bot"
	"Easel/core"
	"Easel/lib/sl"
	"Easel/storage"
	"Easel/studio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	conf := core.MustLoad(*configPath)
	log := setupLogger(conf.Env)
	log.With(
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("model", conf.Model),
	).Info("starting easel")

	store := selectStorage(conf, log)

	gemini := ai.NewGemini(conf, log)
	easel := studio.NewStudio(conf, log, store, gemini)

	tgBot, err := bot.NewTgBot(conf, log)
	if err != nil {
		log.Error("creating telegram bot", sl.Err(err))
		return
	}

	tgBot.SetStudio(easel)
	easel.SetKeySelector(tgBot)

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := tgBot.Start(); err != nil {
			log.Error("bot stopped with error", sl.Err(err))
		}
	}()

	log.Info("easel started")

	sig := <-sigChan
	log.Info("received signal, shutting down", slog.String("signal", sig.String()))

	tgBot.Stop()

	if err := easel.Close(); err != nil {
		log.Error("error closing studio", sl.Err(err))
	}

	log.Info("shutdown complete")
}

// selectStorage picks the first backend that comes up: MongoDB when enabled,
// then the data file, then memory. Storage is non-critical, a failed backend
// is logged and the next simpler one is used. Constructors are assigned to
// concrete locals so a failed one never leaves a typed nil in the interface.
func selectStorage(conf *core.Config, log *slog.Logger) storage.StudioStorage {
	if conf.Mongo.Enabled {
		mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%s",
			conf.Mongo.User, conf.Mongo.Password,
			conf.Mongo.Host, conf.Mongo.Port)
		m, err := storage.NewMongoStorage(mongoURI, conf.Mongo.Database, log)
		if err == nil {
			log.Info("using MongoDB storage")
			return m
		}
		log.With(
			slog.String("db", conf.Mongo.Database),
			slog.String("host", conf.Mongo.Host),
		).Error("falling back to file storage", sl.Err(err))
	}

	f, err := storage.NewFileStorage(conf.DataFile, log)
	if err != nil {
		log.With(slog.String("path", conf.DataFile)).
			Error("falling back to in-memory storage", sl.Err(err))
		return storage.NewMemoryStorage()
	}
	log.Info("using file storage", slog.String("path", conf.DataFile))
	return f
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
