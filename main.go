package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/api"
	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/events/kafka"
	"github.com/carson-networks/ledger-server/internal/handlers/v1/status"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/operator"
	"github.com/carson-networks/ledger-server/internal/service"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/memory"
)

type backend interface {
	storage.Backend
	status.Pinger
}

func main() {
	cfg, err := config.Load(os.Getenv("LEDGER_CONFIG_FILE"))
	if err != nil {
		logrus.WithError(err).Fatal("config.Load")
		return
	}

	logger := logging.SetupLogging(cfg.Log.Level)
	logger.Info("ledger-server starting")

	var store backend
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store = memory.NewStore()
	default:
		dbStorage, err := storage.NewStorage(&cfg.Postgres)
		if err != nil {
			logger.WithError(err).Fatal("storage.NewStorage")
			return
		}
		defer dbStorage.Close()
		store = dbStorage
	}
	logger.WithField("driver", cfg.Storage.Driver).Info("Storage ready")

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		publisher = kafka.NewPublisher(brokers, kafka.Topics{
			Movement: cfg.Kafka.TopicMovement,
			Transfer: cfg.Kafka.TopicTransfer,
		})
		logger.WithField("brokers", brokers).Info("Publishing ledger events to kafka")
	}

	delegator := operator.NewOperatorDelegator(publisher, operator.Options{
		Workers:    cfg.Notifier.Workers,
		QueueSize:  cfg.Notifier.QueueSize,
		MaxRetries: cfg.Notifier.MaxRetries,
		Logger:     logger,
	})
	delegator.Start()
	defer delegator.Stop()

	// Validated by config.Load.
	fee, _ := cfg.TransferFee()
	engine := ledger.NewEngine(store,
		ledger.WithTransferFee(fee),
		ledger.WithNotifier(delegator),
		ledger.WithLogger(logger),
	)
	svc := service.NewService(store, engine)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpRest := api.Rest{
		Logger:  logger,
		Port:    cfg.HTTP.Port,
		Storage: store,
		Service: svc,
	}
	if err := httpRest.Serve(ctx); err != nil {
		logger.WithError(err).Error("ledger-server stopped")
	}
}
