package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collUsers    = "users"
	collOTPs     = "otps"
	collSessions = "sessions"
	collJobs     = "jobs"
	collOrders   = "orders"
)

func Open(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, err
	}
	return client.Database(dbName), nil
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		collOTPs: {
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "ctime", Value: -1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
		collSessions: {
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
		collJobs: {
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "ctime", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "mtime", Value: 1}}},
		},
		collOrders: {
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "ctime", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
