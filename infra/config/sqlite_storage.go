package config

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrConfigNotFound is returned when no stored configuration exists for a provider
var ErrConfigNotFound = errors.New("no stored configuration found")

// SQLiteStorage persists provider configurations set at runtime
type SQLiteStorage struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// retryOperation retries operation while SQLite reports the database as busy
func (s *SQLiteStorage) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}

		lastErr = err
		if attempt < maxRetries {
			// 10ms, 20ms, 40ms
			time.Sleep(time.Duration(10*(1<<attempt)) * time.Millisecond)
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// NewSQLiteStorage opens or creates the configuration database at dbPath
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)

	storage := &SQLiteStorage{
		db:   db,
		path: dbPath,
	}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := storage.applyPragmas(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

func (s *SQLiteStorage) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS provider_configs (
		provider_name TEXT PRIMARY KEY,
		config_data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteStorage) applyPragmas() error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA temp_store = memory;",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

// Path returns the database file location
func (s *SQLiteStorage) Path() string {
	return s.path
}

// SaveConfig inserts or replaces the configuration of a provider
func (s *SQLiteStorage) SaveConfig(providerName string, config map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return s.retryOperation(func() error {
		query := `
		INSERT INTO provider_configs (provider_name, config_data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(provider_name)
		DO UPDATE SET
			config_data = excluded.config_data,
			updated_at = CURRENT_TIMESTAMP
		`

		if _, err := s.db.Exec(query, providerName, string(configJSON)); err != nil {
			return fmt.Errorf("failed to save provider config: %w", err)
		}
		return nil
	}, 3)
}

// LoadConfig reads the stored configuration of a provider
func (s *SQLiteStorage) LoadConfig(providerName string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config map[string]string
	err := s.retryOperation(func() error {
		var configJSON string
		err := s.db.QueryRow(`SELECT config_data FROM provider_configs WHERE provider_name = ?`, providerName).Scan(&configJSON)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w for provider: %s", ErrConfigNotFound, providerName)
		}
		if err != nil {
			return fmt.Errorf("failed to load provider config: %w", err)
		}

		if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
		return nil
	}, 3)

	return config, err
}

// LoadAllConfigs reads every stored configuration keyed by provider name.
// Rows that cannot be decoded are skipped.
func (s *SQLiteStorage) LoadAllConfigs() (map[string]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var configs map[string]map[string]string
	err := s.retryOperation(func() error {
		rows, err := s.db.Query(`SELECT provider_name, config_data FROM provider_configs ORDER BY provider_name`)
		if err != nil {
			return fmt.Errorf("failed to query provider configs: %w", err)
		}
		defer rows.Close()

		configs = make(map[string]map[string]string)
		for rows.Next() {
			var providerName, configJSON string
			if err := rows.Scan(&providerName, &configJSON); err != nil {
				return fmt.Errorf("failed to scan row: %w", err)
			}

			var config map[string]string
			if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
				continue
			}
			configs[providerName] = config
		}

		return rows.Err()
	}, 3)

	if err != nil {
		return nil, err
	}
	return configs, nil
}

// DeleteConfig removes the stored configuration of a provider
func (s *SQLiteStorage) DeleteConfig(providerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		result, err := s.db.Exec(`DELETE FROM provider_configs WHERE provider_name = ?`, providerName)
		if err != nil {
			return fmt.Errorf("failed to delete provider config: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("%w for provider: %s", ErrConfigNotFound, providerName)
		}
		return nil
	}, 3)
}

// Ping checks that the database is reachable
func (s *SQLiteStorage) Ping() error {
	return s.db.Ping()
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
