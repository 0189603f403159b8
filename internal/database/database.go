package database

import (
	"context"
	"fmt"

	"randomchallenge/api/internal/config"
	"randomchallenge/api/internal/repositories"
	"randomchallenge/api/internal/repositories/mongo"
	"randomchallenge/api/internal/repositories/sqldb"

	"go.uber.org/zap"
)

var (
	newMongoClient = mongo.NewClient
	newMongoStore  = mongo.NewStore
	connectSQL     = sqldb.ConnectWithRetry
)

// Open connects to the backend named by cfg.StoreBackend and returns a
// ready store. SQL backends are retried until cfg.DBConnectTimeout.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, err := newMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		store, err := newMongoStore(ctx, client, cfg.MongoDBName)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info("connected to MongoDB", zap.String("db", cfg.MongoDBName))
		return store, nil

	case config.BackendPostgres:
		p := cfg.Postgres
		dsn := sqldb.PostgresDSN(p.Host, p.Port, p.User, p.Password, p.DB, p.SSLMode)
		db, err := connectSQL(sqldb.PostgresDialector(dsn), cfg.DBConnectTimeout, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to PostgreSQL", zap.String("host", p.Host), zap.String("db", p.DB))
		return sqldb.NewStore(db)

	case config.BackendSQLite:
		db, err := connectSQL(sqldb.SQLiteDialector(cfg.SQLitePath), cfg.DBConnectTimeout, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("opened SQLite database", zap.String("path", cfg.SQLitePath))
		return sqldb.NewStore(db)
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
}
