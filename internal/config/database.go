package config

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/instantverify/verify-api/internal/logging"
	"github.com/instantverify/verify-api/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

var (
	// MongoDB client
	MongoDB *mongo.Database
	// Redis client
	Redis *redisclient.Client
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal(err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	if err := ensureIndexes(); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}
	startIndexMaintenance()

	logging.Logger.Info("connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
}

// InitRedis initializes the Redis connection
func InitRedis() {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         AppConfig.RedisURI,
		Password:     AppConfig.RedisPassword,
		DB:           AppConfig.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Wrap with traced client
	Redis = redisclient.NewClient(redisClient)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", AppConfig.RedisURI),
			zap.Error(err))
		return
	}

	logging.Logger.Info("connected to Redis",
		zap.String("uri", AppConfig.RedisURI))
}

// maskMongoURI masks credentials embedded in a MongoDB URI
func maskMongoURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at == -1 {
		return uri
	}
	return "mongodb://****:****@" + uri[at+1:]
}

type indexSpec struct {
	collection string
	models     []mongo.IndexModel
}

// ensureIndexes creates required indexes if they don't exist
func ensureIndexes() error {
	logger := zap.L().Named("database")
	logger.Info("ensuring required indexes exist")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	specs := []indexSpec{
		{
			collection: AppConfig.RequestCollection,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
					Options: options.Index().SetName("user_id_1_created_at_-1"),
				},
				{
					Keys:    bson.D{{Key: "status", Value: 1}},
					Options: options.Index().SetName("status_1"),
				},
			},
		},
		{
			collection: AppConfig.StepCollection,
			models: []mongo.IndexModel{
				{
					// A request owns at most one step per catalog name
					Keys:    bson.D{{Key: "request_id", Value: 1}, {Key: "name", Value: 1}},
					Options: options.Index().SetName("request_id_1_name_1").SetUnique(true),
				},
				{
					Keys:    bson.D{{Key: "request_id", Value: 1}, {Key: "order", Value: 1}},
					Options: options.Index().SetName("request_id_1_order_1"),
				},
			},
		},
		{
			collection: AppConfig.ReportCollection,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "request_id", Value: 1}},
					Options: options.Index().SetName("request_id_1").SetUnique(true),
				},
			},
		},
		{
			collection: AppConfig.AuditLogCollection,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "request_id", Value: 1}},
					Options: options.Index().SetName("request_id_1"),
				},
				{
					Keys:    bson.D{{Key: "timestamp", Value: -1}},
					Options: options.Index().SetName("timestamp_-1"),
				},
				{
					// Keep audit logs for 1 year
					Keys:    bson.D{{Key: "timestamp", Value: 1}},
					Options: options.Index().SetName("timestamp_ttl").SetExpireAfterSeconds(365 * 24 * 60 * 60),
				},
			},
		},
	}

	for _, spec := range specs {
		if err := ensureCollectionIndexes(ctx, logger, spec); err != nil {
			return err
		}
	}

	logger.Info("all required indexes verified")
	return nil
}

// ensureCollectionIndexes creates the missing indexes for one collection
func ensureCollectionIndexes(ctx context.Context, logger *zap.Logger, spec indexSpec) error {
	collection := MongoDB.Collection(spec.collection)

	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		logger.Error("failed to list indexes",
			zap.String("collection", spec.collection),
			zap.Error(err))
		return err
	}
	defer cursor.Close(ctx)

	existing := make(map[string]bool)
	for cursor.Next(ctx) {
		var index bson.M
		if err := cursor.Decode(&index); err != nil {
			continue
		}
		if name, ok := index["name"].(string); ok {
			existing[name] = true
		}
	}

	created := 0
	for _, model := range spec.models {
		name := ""
		if model.Options != nil && model.Options.Name != nil {
			name = *model.Options.Name
		}
		if existing[name] {
			continue
		}

		if _, err := collection.Indexes().CreateOne(ctx, model); err != nil {
			// Another instance may have created it between List and CreateOne
			if mongo.IsDuplicateKeyError(err) {
				logger.Info("index already exists (created by another instance)",
					zap.String("collection", spec.collection),
					zap.String("index", name))
				continue
			}
			logger.Error("failed to create index",
				zap.String("collection", spec.collection),
				zap.String("index", name),
				zap.Error(err))
			return err
		}
		created++
	}

	if created > 0 {
		logger.Info("created collection indexes",
			zap.String("collection", spec.collection),
			zap.Int("count", created))
	} else {
		logger.Debug("collection indexes already exist",
			zap.String("collection", spec.collection))
	}

	return nil
}

// startIndexMaintenance starts a goroutine that periodically ensures indexes exist
func startIndexMaintenance() {
	logger := zap.L().Named("database")

	go func() {
		ticker := time.NewTicker(AppConfig.IndexMaintenanceInterval)
		defer ticker.Stop()

		for range ticker.C {
			if err := ensureIndexes(); err != nil {
				logger.Error("periodic index check failed", zap.Error(err))
			}
		}
	}()

	logger.Info("started index maintenance routine",
		zap.Duration("interval", AppConfig.IndexMaintenanceInterval))
}
