package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jetstreamair/jetshare/config"
	"github.com/jetstreamair/jetshare/internal/domain"
	"github.com/jetstreamair/jetshare/internal/kafka"
	"github.com/jetstreamair/jetshare/internal/notify"
	"github.com/jetstreamair/jetshare/internal/payment"
	"github.com/jetstreamair/jetshare/internal/repository"
	"github.com/jetstreamair/jetshare/internal/service/payments"
	kafkaGo "github.com/segmentio/kafka-go"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalw("connect postgres", "error", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	cardGateway := payment.NewCardGateway(cfg.Payments.Card)
	cryptoGateway := payment.NewCryptoGateway(cfg.Payments.Crypto)

	offerRepo := repository.NewOfferRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := notify.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.OfferEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Warnw("skipping undecodable event", "error", err)
				return nil
			}
			return sender.Send(ctx, event)
		}); err != nil {
			logger.Infow("consumer stopped", "error", err)
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.SweepMinutes) * time.Minute)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			failed, err := paymentService.FailStalePayments(ctx)
			if err != nil {
				logger.Errorw("stale payment sweep failed", "error", err)
				continue
			}
			if len(failed) > 0 {
				logger.Infow("failed stale pending transactions", "count", len(failed))
			}
		case s := <-sig:
			logger.Infow("received signal, shutting down", "signal", s.String())
			return
		}
	}
}
