package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/PLManuel/Mitikas-sub000/internal/config"
	kafkax "github.com/PLManuel/Mitikas-sub000/internal/kafka"
	"github.com/PLManuel/Mitikas-sub000/internal/notifier"
	"github.com/PLManuel/Mitikas-sub000/internal/orders"
	"github.com/PLManuel/Mitikas-sub000/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{Redis: rdb, ServiceName: "notifier"}
	consumer := kafkax.NewConsumer(cfg.KafkaBrokers, "notifier", orders.TopicOrderStatusChanged, 4)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		slog.Info("shutting down")
		cancel()
	}()

	if err := consumer.Start(ctx, svc.HandleStatusChanged); err != nil {
		slog.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
}
