package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))
	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) SaveExchange(ctx context.Context, exchange *models.Exchange) error {
	query := `
		INSERT INTO exchanges (id, user_id, message, category, tier, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		exchange.ID,
		exchange.UserID,
		exchange.Message,
		string(exchange.Category),
		exchange.Tier,
		exchange.Response,
		exchange.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving exchange: %w", err)
	}

	return nil
}

func (s *PostgresStorage) GetUserExchanges(ctx context.Context, userID int64, limit, offset int) ([]*models.Exchange, error) {
	query := `
		SELECT id, user_id, message, category, tier, response, created_at
		FROM exchanges
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	// LIMIT NULL means no limit.
	rowLimit := sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
	rows, err := s.db.QueryContext(ctx, query, userID, rowLimit, offset)
	if err != nil {
		return nil, fmt.Errorf("error querying exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []*models.Exchange
	for rows.Next() {
		e := &models.Exchange{}
		var category string
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Message,
			&category,
			&e.Tier,
			&e.Response,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning exchange: %w", err)
		}
		e.Category = models.Category(category)
		exchanges = append(exchanges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchanges: %w", err)
	}

	return exchanges, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
