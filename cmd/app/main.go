package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jetstreamair/jetshare/config"
	"github.com/jetstreamair/jetshare/internal/bootstrap"
	"github.com/jetstreamair/jetshare/internal/cache"
	"github.com/jetstreamair/jetshare/internal/domain"
	"github.com/jetstreamair/jetshare/internal/kafka"
	"github.com/jetstreamair/jetshare/internal/payment"
	"github.com/jetstreamair/jetshare/internal/repository"
	"github.com/jetstreamair/jetshare/internal/service/offers"
	"github.com/jetstreamair/jetshare/internal/service/payments"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalw("connect postgres", "error", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Offers.OpenListCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	cardGateway := payment.NewCardGateway(cfg.Payments.Card)
	cryptoGateway := payment.NewCryptoGateway(cfg.Payments.Crypto)

	offerRepo := repository.NewOfferRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	offerService := offers.NewOfferService(
		offerRepo,
		profileRepo,
		redisCache,
		producer,
		cfg.Kafka.OfferEventsTopic,
		logger,
		offers.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		offers.WithAcceptLockTTL(time.Duration(cfg.Offers.AcceptLockTTL)*time.Second),
	)
	paymentService := payments.NewPaymentService(
		offerRepo,
		transactionRepo,
		ticketRepo,
		map[domain.PaymentMethod]payment.Gateway{
			domain.PaymentMethodCard:   cardGateway,
			domain.PaymentMethodCrypto: cryptoGateway,
		},
		producer,
		cfg.Kafka.OfferEventsTopic,
		cfg.Payments.FeePercent,
		logger,
		payments.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		payments.WithPendingTTL(time.Duration(cfg.Payments.PendingTTLMinutes)*time.Minute),
	)

	if err := bootstrap.Run(ctx, cfg, offerService, paymentService, cardGateway, cryptoGateway); err != nil {
		logger.Fatalw("server error", "error", err)
	}
}
