package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir is where Docker mounts secrets.
const DefaultSecretsDir = "/run/secrets"

// ReadSecret читает секрет из файла dir/name. Пустой файл считается ошибкой.
func ReadSecret(dir, name string) (string, error) {
	if dir == "" {
		dir = DefaultSecretsDir
	}
	filePath := filepath.Join(dir, name)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// ReadOptionalSecret returns "" without error when the secret file does not exist.
func ReadOptionalSecret(dir, name string) (string, error) {
	secret, err := ReadSecret(dir, name)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	return secret, err
}
