package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WalletRepository — кошельки игроков в PostgreSQL.
// Implements requirement.Wallet; every withdrawal is logged with its memo.
type WalletRepository struct {
	db       *pgxpool.Pool
	currency string
}

// NewWalletRepository создаёт новый WalletRepository.
func NewWalletRepository(db *pgxpool.Pool, currency string) *WalletRepository {
	return &WalletRepository{db: db, currency: currency}
}

// Balance возвращает баланс; отсутствующий кошелёк — 0.
func (r *WalletRepository) Balance(ctx context.Context, account uuid.UUID) (float64, error) {
	var balance float64
	err := r.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE account_id = $1`, account).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying balance of %s: %w", account, err)
	}
	return balance, nil
}

// Has reports whether the account holds at least amount.
func (r *WalletRepository) Has(ctx context.Context, account uuid.UUID, amount float64) (bool, error) {
	balance, err := r.Balance(ctx, account)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

// Deposit зачисляет сумму, создавая кошелёк при необходимости.
func (r *WalletRepository) Deposit(ctx context.Context, account uuid.UUID, amount float64, memo map[string]string) error {
	if amount <= 0 {
		return fmt.Errorf("deposit amount must be positive, got %v", amount)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(ctx, tx, "deposit")

	if _, err := tx.Exec(ctx,
		`INSERT INTO wallets (account_id, balance) VALUES ($1, $2)
		 ON CONFLICT (account_id) DO UPDATE SET balance = wallets.balance + $2, updated_at = now()`,
		account, amount,
	); err != nil {
		return fmt.Errorf("depositing to %s: %w", account, err)
	}
	if err := logTransaction(ctx, tx, account, amount, memo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing deposit: %w", err)
	}
	return nil
}

// Withdraw снимает сумму, если её хватает. Возвращает false при недостатке средств.
func (r *WalletRepository) Withdraw(ctx context.Context, account uuid.UUID, amount float64, memo map[string]string) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("withdraw amount must not be negative, got %v", amount)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(ctx, tx, "withdraw")

	tag, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance - $2, updated_at = now()
		 WHERE account_id = $1 AND balance >= $2`,
		account, amount,
	)
	if err != nil {
		return false, fmt.Errorf("withdrawing from %s: %w", account, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if err := logTransaction(ctx, tx, account, -amount, memo); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing withdrawal: %w", err)
	}
	return true, nil
}

// Format renders an amount with the configured currency name.
func (r *WalletRepository) Format(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	if r.currency == "" {
		return s
	}
	return s + " " + r.currency
}

func logTransaction(ctx context.Context, tx pgx.Tx, account uuid.UUID, amount float64, memo map[string]string) error {
	if memo == nil {
		memo = map[string]string{}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO wallet_transactions (account_id, amount, memo) VALUES ($1, $2, $3)`,
		account, amount, memo,
	); err != nil {
		return fmt.Errorf("logging wallet transaction for %s: %w", account, err)
	}
	return nil
}
