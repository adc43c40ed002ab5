package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Grants verification credits to a user, creating the account if needed.
//
// Usage:
//
//	go run scripts/seed_credits.go -user user-123 -amount 50
func main() {
	userID := flag.String("user", "", "user to credit")
	amount := flag.Int64("amount", 10, "number of credits to grant")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user is required")
	}
	if *amount <= 0 {
		log.Fatal("-amount must be positive")
	}

	mongoURI := getEnv("MONGODB_URI", "mongodb://localhost:27017")
	database := getEnv("MONGODB_DATABASE", "instantverify")
	collection := getEnv("MONGODB_CREDIT_COLLECTION", "credits")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	credits := client.Database(database).Collection(collection)

	var account struct {
		Balance int64 `bson:"balance"`
	}
	err = credits.FindOneAndUpdate(ctx,
		bson.M{"_id": *userID},
		bson.M{
			"$inc": bson.M{"balance": *amount},
			"$set": bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true),
	).Decode(&account)
	if err != nil {
		log.Fatalf("failed to grant credits: %v", err)
	}

	fmt.Printf("granted %d credit(s) to %s, balance is now %d\n", *amount, *userID, account.Balance)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
