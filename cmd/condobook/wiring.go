package main

import (
	"context"
	"fmt"
	"log/slog"

	"condobook/internal/app/middleware"
	appoutbox "condobook/internal/app/outbox"
	"condobook/internal/app/policies"
	"condobook/internal/app/uow"
	"condobook/internal/infra/broker/kafka"
	"condobook/internal/infra/broker/rabbitmq"
	"condobook/internal/infra/config"
	mongodb "condobook/internal/infra/db/mongo"
	"condobook/internal/infra/db/postgres"
	"condobook/internal/infra/notify"
	"condobook/internal/infra/obs"
	"condobook/internal/infra/outbox"
	"condobook/internal/infra/storage/memory"
)

const clientID = "condobook"

type storage struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	relay       appoutbox.Relay
	idempotency middleware.IdempotencyStore
	checks      map[string]obs.Check
	closers     []func(context.Context) error
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMongo:
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storage{}, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			_ = client.Close(ctx)
			return storage{}, fmt.Errorf("mongo indexes: %w", err)
		}
		box, err := outbox.NewStore(ctx, client.DB)
		if err != nil {
			_ = client.Close(ctx)
			return storage{}, err
		}
		idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			_ = client.Close(ctx)
			return storage{}, err
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver, "database", cfg.MongoDB)
		return storage{
			factory:     mongodb.NewFactory(client.DB),
			outbox:      box,
			relay:       box,
			idempotency: idem,
			checks:      map[string]obs.Check{"mongo": client.Ping},
			closers:     []func(context.Context) error{client.Close},
		}, nil
	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return storage{}, fmt.Errorf("postgres open: %w", err)
		}
		box := postgres.NewOutboxStore(db)
		logger.Info("storage ready", "driver", cfg.StorageDriver)
		return storage{
			factory:     postgres.NewFactory(db),
			outbox:      box,
			relay:       box,
			idempotency: postgres.NewIdempotencyStore(db, cfg.IdempotencyTTL),
			checks: map[string]obs.Check{"postgres": func(ctx context.Context) error {
				return postgres.Ping(ctx, db)
			}},
			closers: []func(context.Context) error{func(context.Context) error {
				return postgres.Close(db)
			}},
		}, nil
	default:
		box := memory.NewOutbox()
		logger.Info("storage ready", "driver", config.StorageMemory)
		return storage{
			factory:     memory.NewFactory(),
			outbox:      box,
			relay:       box,
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		}, nil
	}
}

// transport carries booking notices to residents and outbox events to
// subscribers. Without a broker both end up in the log.
type transport struct {
	notifier policies.Notifier
	events   outbox.Producer
	closers  []func(context.Context) error
}

func openTransport(cfg config.Config, logger *slog.Logger) (transport, error) {
	t := transport{
		notifier: notify.LogNotifier{Logger: logger},
		events:   notify.LogPublisher{Logger: logger},
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, clientID, nil)
		if err != nil {
			return transport{}, fmt.Errorf("kafka producer: %w", err)
		}
		t.events = producer
		t.closers = append(t.closers, func(context.Context) error { return producer.Close() })
		if cfg.NotifyTransport == config.NotifyKafka {
			t.notifier = &notify.BrokerNotifier{Producer: producer, Topic: cfg.KafkaTopicPrefix + notify.DefaultTopic}
		}
	}
	if cfg.NotifyTransport == config.NotifyRabbitMQ {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			t.close()
			return transport{}, fmt.Errorf("rabbitmq publisher: %w", err)
		}
		t.notifier = &notify.BrokerNotifier{Producer: publisher}
		if len(cfg.KafkaBrokers) == 0 {
			t.events = publisher
		}
		t.closers = append(t.closers, func(context.Context) error { return publisher.Close() })
	}
	logger.Info("transport ready", "notify", cfg.NotifyTransport, "kafka_brokers", len(cfg.KafkaBrokers))
	return t, nil
}

func (t transport) close() {
	for _, fn := range t.closers {
		_ = fn(context.Background())
	}
}
