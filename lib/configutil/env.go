package configutil

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv loads variables from the given .env files (or `.env` when none
// are given) into the process environment. Variables already set are left
// alone and missing files are ignored.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// FromEnv returns `value` unless it is empty, in which case the environment
// variable `key` is used.
func FromEnv(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}
