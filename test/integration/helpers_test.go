package integration

import (
	"log"
	"os"
	"testing"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}
}

func requireEnv(t *testing.T, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("Skipping integration test: %s not set", key)
	}
	return v
}
