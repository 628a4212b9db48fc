package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/festivalhq/admin-service/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

func NewMongoDBConnection(cfg *config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)

	if cfg.Username != "" && cfg.Password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	if cfg.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, nil
}

// TxRunner wraps state mutations and their audit appends in a single
// multi-document transaction. Standalone deployments have no session
// support; sessions there fail to start and fn runs directly, which keeps
// the two writes sequential the way a standalone mongod requires.
type TxRunner struct {
	client *mongo.Client
	logger *zap.Logger
}

func NewTxRunner(client *mongo.Client, logger *zap.Logger) *TxRunner {
	return &TxRunner{client: client, logger: logger.Named("TxRunner")}
}

func (t *TxRunner) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		t.logger.Warn("Failed to start mongo session, running writes without a transaction", zap.Error(err))
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && !isTransactionSupported(err) {
		t.logger.Warn("Transactions unsupported by deployment, running writes without a transaction", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// isTransactionSupported reports whether err is something other than the
// "transaction numbers are only allowed on a replica set" class of failure.
func isTransactionSupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// IllegalOperation: transactions not supported on this topology.
		return cmdErr.Code != 20
	}
	return true
}
