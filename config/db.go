// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	// Only use Docker service name as fallback in development
	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://mongodb:27017/?replicaSet=rs0"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	// Log connection URI (without password for security)
	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	// Setup necessary collections and indexes
	setupCollections(client)

	return client
}

// GetCollection returns MongoDB collection
func GetCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "evizza"
	}
	return client.Database(dbName).Collection(collectionName)
}

// setupCollections ensures all necessary collections and indexes exist
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "evizza"
	}

	db := client.Database(dbName)

	collections := []string{
		"users", "countries", "visaTypes", "documentRequirements",
		"applications", "documents", "payments", "statusLogs",
		"notifications", "counters",
	}
	for _, collName := range collections {
		db.CreateCollection(ctx, collName)
	}

	unique := func(coll string, keys bson.D) {
		_, err := db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			log.Printf("Error creating unique index on %s: %v", coll, err)
		}
	}
	plain := func(coll string, keys bson.D) {
		_, err := db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys})
		if err != nil {
			log.Printf("Error creating index on %s: %v", coll, err)
		}
	}

	unique("users", bson.D{{Key: "email", Value: 1}})
	unique("countries", bson.D{{Key: "code", Value: 1}})
	unique("visaTypes", bson.D{{Key: "country_id", Value: 1}, {Key: "code", Value: 1}})
	unique("documentRequirements", bson.D{{Key: "visa_type_id", Value: 1}, {Key: "order_index", Value: 1}})

	// The application number unique index is what turns a racy counter
	// into a retriable duplicate-key error instead of two applications
	// sharing a number.
	unique("applications", bson.D{{Key: "application_number", Value: 1}})
	plain("applications", bson.D{{Key: "user_id", Value: 1}, {Key: "createdAt", Value: -1}})
	plain("applications", bson.D{{Key: "status", Value: 1}})

	unique("documents", bson.D{{Key: "application_id", Value: 1}, {Key: "document_requirement_id", Value: 1}})
	plain("payments", bson.D{{Key: "application_id", Value: 1}})
	plain("statusLogs", bson.D{{Key: "application_id", Value: 1}, {Key: "createdAt", Value: 1}})
	plain("notifications", bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}})

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if at := strings.LastIndex(uri, "@"); at != -1 {
		if scheme := strings.Index(uri, "://"); scheme != -1 {
			return uri[:scheme+3] + "***" + uri[at:]
		}
	}
	return uri
}
