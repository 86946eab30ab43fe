package config

import (
	"os"
	"strings"
)

// getEnv retrieves an environment variable value.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrFile retrieves a value from either a direct environment variable
// or a file path specified by the file key.
//
// If both are set, the file takes precedence. The file contents are trimmed
// of leading/trailing whitespace.
func getEnvOrFile(directKey, fileKey string) (string, error) {
	if filePath := os.Getenv(fileKey); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(content)), nil
	}

	return os.Getenv(directKey), nil
}

// getEnvWithFileFallback retrieves a value supporting the _FILE suffix pattern.
// Given a key like "TERMINAL", it checks:
//  1. SSHSEARCH_TERMINAL_FILE - reads file contents if set
//  2. SSHSEARCH_TERMINAL - returns direct value if set
func getEnvWithFileFallback(key string) (string, error) {
	return getEnvOrFile(EnvPrefix+key, EnvPrefix+key+"_FILE")
}

// pathEnvKey returns the environment variable overriding a source path.
// Example: source.UserKnownHosts → "SSHSEARCH_USER_KNOWN_HOSTS_PATH"
func pathEnvKey(kindEnvName string) string {
	return EnvPrefix + kindEnvName + "_PATH"
}
