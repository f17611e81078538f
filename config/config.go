// Package config reads deployment settings from the process environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the given .env files into the environment. Variables that are
// already set win. Missing files are not an error.
func Load(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", f, err)
		}
		log.Printf("[CONFIG] loaded environment from %s", f)
	}
	return nil
}

// GetEnvVariable returns the value of v or an error when it is unset or empty.
func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("config: empty variable name")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("config: %s is not set", v)
	}
	return b, nil
}

func String(key, def string) string {
	if v, err := GetEnvVariable(key); err == nil {
		return v
	}
	return def
}

func Int(key string, def int) (int, error) {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func Int64(key string, def int64) (int64, error) {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func Float(key string, def float64) (float64, error) {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func Duration(key string, def time.Duration) (time.Duration, error) {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
