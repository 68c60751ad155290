package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type PostgresOrderRepository struct {
	db *sql.DB
}

func NewPostgresOrderRepository(cred *Credentials) (*PostgresOrderRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return &PostgresOrderRepository{db: db}, nil
}

func (r *PostgresOrderRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, order domain.NewOrder) (string, error) {
	items := order.Items
	if items == nil {
		items = []domain.CartLineItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal order items: %w", err)
	}

	id := uuid.New()
	query := `INSERT INTO orders (id, user_id, total_amount, status, items, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`

	if _, err := r.db.ExecContext(ctx, query,
		id,
		order.UserID,
		order.TotalAmount,
		string(order.Status),
		itemsJSON); err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	return id.String(), nil
}

func (r *PostgresOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	query := `SELECT id, user_id, total_amount, status, stripe_payment_intent_id, items, created_at, updated_at
	          FROM orders WHERE id = $1`

	var (
		order     domain.Order
		status    string
		intentID  sql.NullString
		itemsJSON []byte
	)
	err = r.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID,
		&order.UserID,
		&order.TotalAmount,
		&status,
		&intentID,
		&itemsJSON,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	order.Status = domain.ParseOrderStatus(status)
	order.StripePaymentIntentID = intentID.String
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &order, nil
}

func (r *PostgresOrderRepository) UpdateOrder(ctx context.Context, id string, update domain.OrderUpdate) error {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return ErrOrderNotFound
	}

	query := `UPDATE orders
	          SET status = COALESCE(NULLIF($2, ''), status),
	              stripe_payment_intent_id = COALESCE(NULLIF($3, ''), stripe_payment_intent_id),
	              updated_at = NOW()
	          WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, orderID, string(update.Status), update.StripePaymentIntentID)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *PostgresOrderRepository) Close() error {
	return r.db.Close()
}
