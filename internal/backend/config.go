package backend

import (
	"errors"
	"fmt"
	"strings"

	"expensebot/internal/config"
)

// FromAppConfig picks the store described by DATA_BACKEND and SQLITE_DB_PATH.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	bc := Config{
		Type:         BackendType(strings.ToLower(strings.TrimSpace(appConfig.DataBackend))),
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}
	if err := bc.Validate(); err != nil {
		return Config{}, err
	}
	return bc, nil
}

// Validate reports an unknown backend or a sqlite backend without a path.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("unknown data backend %q (want one of %s)",
			c.Type, strings.Join(GetBackendTypeStrings(), ", "))
	}
	if c.Type == SQLiteBackend && strings.TrimSpace(c.SQLiteDBPath) == "" {
		return errors.New("SQLITE_DB_PATH is required for the sqlite backend")
	}
	return nil
}

func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}

func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
