package redis

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
)

const (
	// KeyPrefixSnapshot prefixes the latest snapshot of an environment.
	KeyPrefixSnapshot = "jbmon:snapshot:"
	// KeyPrefixHistory prefixes the list of recent snapshot ids.
	KeyPrefixHistory = "jbmon:snapshots:"
)

// SnapshotKey returns the key holding env's latest snapshot.
func SnapshotKey(env domain.Environment) string {
	return KeyPrefixSnapshot + env.String()
}

// HistoryKey returns the key of env's recent snapshot ids, newest first.
func HistoryKey(env domain.Environment) string {
	return KeyPrefixHistory + env.String()
}

// ExtractEnvironment returns the environment encoded in a snapshot key.
func ExtractEnvironment(key string) (domain.Environment, error) {
	name, ok := strings.CutPrefix(key, KeyPrefixSnapshot)
	if !ok || name == "" {
		return "", fmt.Errorf("invalid snapshot key: %s", key)
	}
	env := domain.ParseEnvironment(name)
	if env.String() != name {
		return "", fmt.Errorf("unknown environment in key: %s", key)
	}
	return env, nil
}
