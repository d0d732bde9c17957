package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first one that exists wins.
var envFiles = []string{".env", ".env.local"}

var errNoEnvFile = errors.New("no .env file found")

// loadEnvFile loads environment variables from the first .env file found.
// Variables already present in the process environment are not overwritten.
func loadEnvFile() error {
	for _, envPath := range envFiles {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
		return nil
	}
	return errNoEnvFile
}
