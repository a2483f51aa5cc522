package database

import (
	"admin-service/internal/model"
	"admin-service/pkg/config"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// InitDB opens the database named by cfg.URL. The URL scheme selects the
// dialect: postgres://, postgresql://, mysql:// or sqlite://.
func InitDB(cfg config.DBConfig) (*gorm.DB, error) {
	dialector, inMemory, err := Dialector(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(cfg.LogLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(model.TimestampPrecision)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	if inMemory {
		// Every new connection to :memory: is a fresh, empty database
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		return db, nil
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// Dialector maps a database URL to a gorm dialector.
func Dialector(rawURL string) (gorm.Dialector, bool, error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, false, fmt.Errorf("database url %q has no scheme", rawURL)
	}

	switch scheme {
	case "postgres", "postgresql":
		return postgres.New(postgres.Config{
			DSN:                  rawURL,
			PreferSimpleProtocol: true, // Disables implicit prepared statement usage
		}), false, nil
	case "mysql":
		dsn, err := mysqlDSN(rawURL)
		if err != nil {
			return nil, false, err
		}
		return mysql.Open(dsn), false, nil
	case "sqlite", "sqlite3":
		path, params, _ := strings.Cut(rest, "?")
		if path == "" {
			return nil, false, fmt.Errorf("database url %q has no path", rawURL)
		}
		query, err := url.ParseQuery(params)
		if err != nil {
			return nil, false, fmt.Errorf("invalid sqlite parameters: %w", err)
		}
		if query.Get("_foreign_keys") == "" && query.Get("_fk") == "" {
			query.Set("_foreign_keys", "1")
		}
		return sqlite.Open(path + "?" + query.Encode()), path == ":memory:", nil
	default:
		return nil, false, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

func mysqlDSN(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid mysql url: %w", err)
	}

	cfg := mysqldriver.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	params := map[string]string{"charset": "utf8mb4"}
	for key, values := range u.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	cfg.Params = params

	return cfg.FormatDSN(), nil
}

// Migrate creates or updates every table of the schema.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}

	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	return nil
}
