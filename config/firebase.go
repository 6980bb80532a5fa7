package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// InitFirebase initializes the Firebase Admin SDK and returns the app
// handle. Callers pass the app to the services that need messaging or
// storage; nothing reads it from a package variable.
func InitFirebase() (*firebase.App, error) {
	ctx := context.Background()

	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	if projectID == "" {
		projectID = "evizza-portal"
	}
	config := &firebase.Config{
		ProjectID:     projectID,
		StorageBucket: os.Getenv("FIREBASE_STORAGE_BUCKET"),
	}

	// Check for base64 encoded credentials first
	if base64Creds := os.Getenv("FIREBASE_CREDENTIALS_BASE64"); base64Creds != "" {
		log.Printf("Using Firebase credentials from base64 environment variable")
		decoded, err := base64.StdEncoding.DecodeString(base64Creds)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 credentials: %w", err)
		}
		return firebase.NewApp(ctx, config, option.WithCredentialsJSON(decoded))
	}

	// Fallback to file-based credentials
	credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if credFile == "" {
		possiblePaths := []string{
			"firebase-service-account.json",
			"./firebase-service-account.json",
			"../firebase-service-account.json",
		}
		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				credFile = path
				break
			}
		}
		if credFile == "" {
			return nil, fmt.Errorf("firebase service account not found: set GOOGLE_APPLICATION_CREDENTIALS, FIREBASE_CREDENTIALS_BASE64, or place the file in one of %v", possiblePaths)
		}
	}

	log.Printf("Using Firebase credentials file: %s", credFile)
	return firebase.NewApp(ctx, config, option.WithCredentialsFile(credFile))
}
