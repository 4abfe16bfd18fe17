package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/lucasmbarros/contracts-api/internal/domain/models"
	"github.com/lucasmbarros/contracts-api/internal/storage"
)

type Storage struct {
	db *sql.DB
}

func New(dbUrl string) (*Storage, error) {
	db, err := sql.Open("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection error %s", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect database error %s", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Stop() error {
	return s.db.Close()
}

func (s *Storage) SaveUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.postgres.SaveUser"

	err := s.db.QueryRowContext(ctx,
		"INSERT INTO users (name, email, password_hash) VALUES($1, $2, $3) RETURNING id",
		user.Name, user.Email, user.PasswordHash,
	).Scan(&user.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UserByID(ctx context.Context, id int) (models.User, error) {
	const op = "storage.postgres.UserByID"

	var user models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash FROM users WHERE id = $1", id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.UserByEmail"

	var user models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash FROM users WHERE email = $1", email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) Users(ctx context.Context) ([]models.User, error) {
	const op = "storage.postgres.Users"

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, email, password_hash FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, user models.User) error {
	const op = "storage.postgres.UpdateUser"

	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET name = $1, email = $2, password_hash = $3 WHERE id = $4",
		user.Name, user.Email, user.PasswordHash, user.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) DeleteUser(ctx context.Context, id int) error {
	const op = "storage.postgres.DeleteUser"

	_, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) SaveContract(ctx context.Context, contract models.Contract) (models.Contract, error) {
	const op = "storage.postgres.SaveContract"

	err := s.db.QueryRowContext(ctx,
		"INSERT INTO contracts (description, user_id, created_at, fidelity, amount) VALUES($1, $2, $3, $4, $5) RETURNING id",
		contract.Description, contract.UserID, contract.CreatedAt, contract.Fidelity, contract.Amount,
	).Scan(&contract.ID)
	if err != nil {
		return models.Contract{}, fmt.Errorf("%s: %w", op, err)
	}

	return contract, nil
}

func (s *Storage) ContractByID(ctx context.Context, id int) (models.Contract, error) {
	const op = "storage.postgres.ContractByID"

	var contract models.Contract
	err := s.db.QueryRowContext(ctx,
		"SELECT id, description, user_id, created_at, fidelity, amount FROM contracts WHERE id = $1", id,
	).Scan(&contract.ID, &contract.Description, &contract.UserID, &contract.CreatedAt, &contract.Fidelity, &contract.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Contract{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return models.Contract{}, fmt.Errorf("%s: %w", op, err)
	}

	return contract, nil
}

func (s *Storage) Contracts(ctx context.Context) ([]models.Contract, error) {
	const op = "storage.postgres.Contracts"

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, description, user_id, created_at, fidelity, amount FROM contracts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanContracts(rows, op)
}

func (s *Storage) ContractsByUser(ctx context.Context, userID int) ([]models.Contract, error) {
	const op = "storage.postgres.ContractsByUser"

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, description, user_id, created_at, fidelity, amount FROM contracts WHERE user_id = $1 ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanContracts(rows, op)
}

func (s *Storage) CountContractsByUser(ctx context.Context, userID int) (int, error) {
	const op = "storage.postgres.CountContractsByUser"

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contracts WHERE user_id = $1", userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (s *Storage) UpdateContract(ctx context.Context, contract models.Contract) error {
	const op = "storage.postgres.UpdateContract"

	_, err := s.db.ExecContext(ctx,
		"UPDATE contracts SET description = $1, user_id = $2, created_at = $3, fidelity = $4, amount = $5 WHERE id = $6",
		contract.Description, contract.UserID, contract.CreatedAt, contract.Fidelity, contract.Amount, contract.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) DeleteContract(ctx context.Context, id int) error {
	const op = "storage.postgres.DeleteContract"

	_, err := s.db.ExecContext(ctx, "DELETE FROM contracts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func scanContracts(rows *sql.Rows, op string) ([]models.Contract, error) {
	var contracts []models.Contract
	for rows.Next() {
		var contract models.Contract
		if err := rows.Scan(&contract.ID, &contract.Description, &contract.UserID, &contract.CreatedAt, &contract.Fidelity, &contract.Amount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		contracts = append(contracts, contract)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return contracts, nil
}
