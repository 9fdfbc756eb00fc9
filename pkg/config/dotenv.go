package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv exports the variables in path. A missing file is not an error;
// a malformed one is.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
