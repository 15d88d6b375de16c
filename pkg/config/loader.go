package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DotenvPathVar names the variable that points at an optional .env file.
const DotenvPathVar = "DOTENV_PATH"

// LoadDotenv loads KEY=VALUE pairs from the file named by DOTENV_PATH (or
// ".env") into the process environment. Variables already set win over the
// file. A missing file is not an error.
func LoadDotenv() error {
	path := os.Getenv(DotenvPathVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load applies LoadDotenv and then parses environment variables into the
// provided struct using its `env` tags.
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := LoadDotenv(); err != nil {
		return err
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
