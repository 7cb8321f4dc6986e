package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/PLManuel/Mitikas-sub000/internal/auth"
	"github.com/PLManuel/Mitikas-sub000/internal/backorder"
	"github.com/PLManuel/Mitikas-sub000/internal/cart"
	"github.com/PLManuel/Mitikas-sub000/internal/catalog"
	"github.com/PLManuel/Mitikas-sub000/internal/checkout"
	"github.com/PLManuel/Mitikas-sub000/internal/config"
	"github.com/PLManuel/Mitikas-sub000/internal/httpx"
	kafkax "github.com/PLManuel/Mitikas-sub000/internal/kafka"
	"github.com/PLManuel/Mitikas-sub000/internal/orders"
	"github.com/PLManuel/Mitikas-sub000/internal/payment"
	"github.com/PLManuel/Mitikas-sub000/internal/postgres"
	"github.com/PLManuel/Mitikas-sub000/internal/promo"
	"github.com/PLManuel/Mitikas-sub000/internal/redisx"
	"github.com/PLManuel/Mitikas-sub000/internal/shipping"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	placed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	placed.Start(ctx)
	changed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	changed.Start(ctx)

	catalogRepo := &catalog.Repo{DB: db}
	promoRepo := &promo.Repo{DB: db}
	resolver := &promo.Resolver{Promos: promoRepo}
	cartRepo := &cart.Repo{DB: db}
	paymentRepo := &payment.Repo{DB: db}
	zoneRepo := &shipping.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	backorderRepo := &backorder.Repo{DB: db}
	staffRepo := &auth.StaffRepo{DB: db}

	cartSvc := cart.NewService(cartRepo, catalogRepo, promoRepo, resolver)
	checkoutSvc := &checkout.Service{
		Cart:     cartSvc,
		Payments: paymentRepo,
		Zones:    zoneRepo,
		Orders:   &checkout.Repo{DB: db},
	}
	fulfillmentSvc := &orders.Service{
		Store:    orderRepo,
		Couriers: staffRepo,
		Gate:     backorderRepo,
	}
	backorderSvc := backorder.NewService(backorderRepo, orderRepo)

	router := httpx.NewRouter()
	(&httpx.CartHandler{Svc: cartSvc}).Register(router)
	(&httpx.OrdersHandler{
		Checkout:    checkoutSvc,
		Fulfillment: fulfillmentSvc,
		Repo:        orderRepo,
		Placed:      placed,
		Changed:     changed,
		Redis:       rdb,
		Service:     cfg.ServiceName,
	}).Register(router)
	(&httpx.BackorderHandler{Svc: backorderSvc}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	placed.Close()
	changed.Close()
	cancel()
	placed.WaitClosed()
	changed.WaitClosed()
}
