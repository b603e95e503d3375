package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	sqliteDialector "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	// ErrUnsupportedDialect indicates that no GORM dialector is available for the scheme.
	ErrUnsupportedDialect = errors.New("token_store.unsupported_dialect")

	errEmptyDatabaseURL    = errors.New("token_store.empty_database_url")
	errSQLiteEmptyPath     = errors.New("token_store.sqlite.empty_path")
	errSQLiteInvalidURL    = errors.New("token_store.sqlite.invalid_url")
	errUnsupportedNoScheme = errors.New("token_store.unsupported_no_scheme")
)

// DatabaseStore persists the credential record using GORM. The three legacy
// entry keys are written inside one transaction so a crash can never leave a
// token without its expiry.
type DatabaseStore struct {
	db          *gorm.DB
	driverLabel string
}

// Driver exposes the selected database driver label.
func (store *DatabaseStore) Driver() string {
	return store.driverLabel
}

type credentialEntry struct {
	EntryKey   string `gorm:"column:entry_key;primaryKey"`
	EntryValue string `gorm:"column:entry_value;not null"`
}

func (credentialEntry) TableName() string {
	return "credential_entries"
}

// NewDatabaseStore constructs a GORM-backed store from a sqlite:// or
// postgres:// URL.
func NewDatabaseStore(ctx context.Context, databaseURL string) (*DatabaseStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("token_store.open: %w", errEmptyDatabaseURL)
	}
	dialector, driverLabel, err := resolveDialector(databaseURL)
	if err != nil {
		return nil, err
	}
	gormDB, openErr := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if openErr != nil {
		return nil, fmt.Errorf("token_store.open.%s: %w", driverLabel, openErr)
	}
	if migrateErr := gormDB.WithContext(ctx).AutoMigrate(&credentialEntry{}); migrateErr != nil {
		return nil, fmt.Errorf("token_store.migrate.%s: %w", driverLabel, migrateErr)
	}
	return &DatabaseStore{
		db:          gormDB,
		driverLabel: driverLabel,
	}, nil
}

// Load reads the credential entries. A missing record yields the zero
// Credential without error.
func (store *DatabaseStore) Load(ctx context.Context) (Credential, error) {
	var entries []credentialEntry
	err := store.db.WithContext(ctx).
		Where("entry_key IN ?", []string{AccessTokenKey, RefreshTokenKey, TokenExpiresAtKey}).
		Find(&entries).Error
	if err != nil {
		return Credential{}, fmt.Errorf("token_store.load.%s: %w", store.driverLabel, err)
	}
	var credential Credential
	for _, entry := range entries {
		switch entry.EntryKey {
		case AccessTokenKey:
			credential.AccessToken = entry.EntryValue
		case RefreshTokenKey:
			credential.RefreshToken = entry.EntryValue
		case TokenExpiresAtKey:
			parsed, parseErr := strconv.ParseInt(entry.EntryValue, 10, 64)
			if parseErr == nil {
				credential.ExpiresAt = parsed
			}
		}
	}
	return credential, nil
}

// Save upserts all three entries in one transaction.
func (store *DatabaseStore) Save(ctx context.Context, credential Credential) error {
	entries := []credentialEntry{
		{EntryKey: AccessTokenKey, EntryValue: credential.AccessToken},
		{EntryKey: RefreshTokenKey, EntryValue: credential.RefreshToken},
		{EntryKey: TokenExpiresAtKey, EntryValue: strconv.FormatInt(credential.ExpiresAt, 10)},
	}
	err := store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return transaction.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"entry_value"}),
		}).Create(&entries).Error
	})
	if err != nil {
		return fmt.Errorf("token_store.save.%s: %w", store.driverLabel, err)
	}
	return nil
}

// Clear deletes all credential entries in one transaction.
func (store *DatabaseStore) Clear(ctx context.Context) error {
	err := store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return transaction.
			Where("entry_key IN ?", []string{AccessTokenKey, RefreshTokenKey, TokenExpiresAtKey}).
			Delete(&credentialEntry{}).Error
	})
	if err != nil {
		return fmt.Errorf("token_store.clear.%s: %w", store.driverLabel, err)
	}
	return nil
}

func resolveDialector(databaseURL string) (gorm.Dialector, string, error) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("token_store.parse_url: %w", err)
	}
	if parsed.Scheme == "" {
		return nil, "", fmt.Errorf("token_store.dialect: %w", errUnsupportedNoScheme)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "postgres", "postgresql":
		return postgres.Open(databaseURL), "postgres", nil
	case "sqlite", "sqlite3":
		dsn, dsnErr := buildSQLiteDSN(parsed)
		if dsnErr != nil {
			return nil, "", fmt.Errorf("token_store.sqlite: %w", dsnErr)
		}
		return sqliteDialector.Open(dsn), "sqlite", nil
	default:
		return nil, "", fmt.Errorf("token_store.dialect.%s: %w", strings.ToLower(parsed.Scheme), ErrUnsupportedDialect)
	}
}

func buildSQLiteDSN(parsed *url.URL) (string, error) {
	if parsed == nil {
		return "", errSQLiteInvalidURL
	}
	var builder strings.Builder
	switch {
	case parsed.Opaque != "":
		builder.WriteString(parsed.Opaque)
	case parsed.Host != "":
		builder.WriteString(parsed.Host)
		if parsed.Path != "" {
			if !strings.HasPrefix(parsed.Path, "/") {
				builder.WriteString("/")
			}
			builder.WriteString(parsed.Path)
		}
	default:
		builder.WriteString(parsed.Path)
	}
	if builder.Len() == 0 {
		return "", errSQLiteEmptyPath
	}
	if parsed.RawQuery != "" {
		builder.WriteString("?")
		builder.WriteString(parsed.RawQuery)
	}
	return builder.String(), nil
}
