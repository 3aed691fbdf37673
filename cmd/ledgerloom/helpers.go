package main

import (
	"fmt"
	"os"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/config"
	"github.com/ledgerloom/ledgerloom/internal/storage"
	"github.com/spf13/viper"
)

// openStorage opens the configured SQLite database.
func openStorage() (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("%w: database.path is unset and no home directory is available",
				common.ErrMissingConfig)
		}
	}

	store, err := storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("failed to open database %s", dbPath), err)
	}
	return store, nil
}

// owner returns the configured owner identity for new rows.
func owner() (string, error) {
	if o := viper.GetString("owner"); o != "" {
		return o, nil
	}
	if u := os.Getenv("USER"); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("%w: set owner in the config file or the USER environment variable",
		common.ErrMissingConfig)
}
