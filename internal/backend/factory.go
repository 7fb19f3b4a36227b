package backend

import (
	"context"
	"fmt"

	"spendlog/internal/amqp"
	"spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	opts   []services.Option
}

// NewFactory creates a new backend factory. opts are passed on to every
// ExpenseService it builds.
func NewFactory(logger *log.Logger, opts ...services.Option) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		opts:   opts,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := f.logger.With(log.FieldBackend, string(config.Type))

	store, err := f.createStore(ctx, logger, config)
	if err != nil {
		return nil, err
	}

	opts := append([]services.Option{services.WithLogger(logger)}, f.opts...)

	// Initialize AMQP client (optional)
	publishing := false
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change messages",
				log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(amqpClient))
			publishing = true
			logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	service := services.NewExpenseService(store, opts...)

	return &BackendResult{
		Store:      store,
		Service:    service,
		Cleanup:    service.Close,
		Publishing: publishing,
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, logger *log.Logger, config Config) (storage.Store, error) {
	switch config.Type {
	case FileBackend:
		fileStore := storage.NewFileStore(config.ExpensesFile)
		logger.DebugContext(ctx, "Initialized file backend", "path", fileStore.Path())
		return fileStore, nil
	case SQLiteBackend:
		sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		logger.DebugContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return sqliteRepo, nil
	case MemoryBackend:
		logger.DebugContext(ctx, "Initialized memory backend")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
