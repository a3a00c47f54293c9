package library

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds runtime settings read from the environment (and an optional .env file).
type Config struct {
	DBPath     string // BOOKSHELF_DB
	StorageKey string // BOOKSHELF_STORAGE_KEY
	LogLevel   string // BOOKSHELF_LOG_LEVEL
	SeedFile   string // BOOKSHELF_SEED_FILE, replaces the embedded seed when set
}

// LoadConfig loads .env if present, then reads the environment with defaults.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		DBPath:     getenv("BOOKSHELF_DB", "library.db"),
		StorageKey: getenv("BOOKSHELF_STORAGE_KEY", DefaultStorageKey),
		LogLevel:   getenv("BOOKSHELF_LOG_LEVEL", "info"),
		SeedFile:   os.Getenv("BOOKSHELF_SEED_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
