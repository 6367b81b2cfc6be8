package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ericfisherdev/credgate/internal/domain/model"
	"github.com/ericfisherdev/credgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.AccountStore     = (*AccountRepo)(nil)
	_ driven.CredentialSource = (*AccountRepo)(nil)
)

// sqliteTimeLayout matches CURRENT_TIMESTAMP so stored values sort consistently.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// AccountRepo is the SQLite implementation of the AccountStore port interface.
// Secrets are encrypted with AES-256-GCM before write and decrypted after read.
type AccountRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewAccountRepo creates a new AccountRepo. key must be 32 bytes for AES-256-GCM,
// or nil to disable secret storage (secret-touching operations return
// driven.ErrEncryptionKeyNotSet).
func NewAccountRepo(db *DB, key []byte) *AccountRepo {
	return &AccountRepo{db: db, key: key}
}

// Create inserts a new inactive account.
func (r *AccountRepo) Create(ctx context.Context, username, secret string) (model.Account, error) {
	encrypted, err := r.encrypt(secret)
	if err != nil {
		return model.Account{}, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	const query = `INSERT INTO accounts (username, secret, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.Writer.ExecContext(ctx, query,
		username, encrypted, string(model.AccountStatusInactive),
		now.Format(sqliteTimeLayout), now.Format(sqliteTimeLayout),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return model.Account{}, fmt.Errorf("create account %q: %w", username, driven.ErrAccountExists)
		}
		return model.Account{}, fmt.Errorf("create account %q: %w", username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Account{}, fmt.Errorf("last insert id: %w", err)
	}

	return model.Account{
		ID:        id,
		Username:  username,
		Secret:    secret,
		Status:    model.AccountStatusInactive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Get retrieves a single account with its decrypted secret.
func (r *AccountRepo) Get(ctx context.Context, username string) (model.Account, error) {
	if r.key == nil {
		return model.Account{}, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT id, username, secret, status, created_at, updated_at, last_login_at FROM accounts WHERE username = ?`
	account, err := r.scanAccount(r.db.Reader.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("get account %q: %w", username, driven.ErrAccountNotFound)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("get account %q: %w", username, err)
	}
	return account, nil
}

// List returns all accounts ordered by username, with decrypted secrets.
func (r *AccountRepo) List(ctx context.Context) ([]model.Account, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT id, username, secret, status, created_at, updated_at, last_login_at FROM accounts ORDER BY username`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// LoadCredentials returns the credentials of every account that is not
// disabled, ordered by username.
func (r *AccountRepo) LoadCredentials(ctx context.Context) ([]model.Credential, error) {
	accounts, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	creds := make([]model.Credential, 0, len(accounts))
	for _, a := range accounts {
		if a.CanLogin() {
			creds = append(creds, a.Credential())
		}
	}
	return creds, nil
}

// UpdateSecret replaces the stored secret for username.
func (r *AccountRepo) UpdateSecret(ctx context.Context, username, secret string) error {
	encrypted, err := r.encrypt(secret)
	if err != nil {
		return err
	}

	const query = `UPDATE accounts SET secret = ?, updated_at = ? WHERE username = ?`
	return r.execOne(ctx, "update secret", username, query, encrypted, nowString(), username)
}

// SetStatus changes the status of username.
func (r *AccountRepo) SetStatus(ctx context.Context, username string, status model.AccountStatus) error {
	const query = `UPDATE accounts SET status = ?, updated_at = ? WHERE username = ?`
	return r.execOne(ctx, "set status", username, query, string(status), nowString(), username)
}

// RecordLogin stamps last_login_at and promotes an inactive account to active.
// Disabled accounts keep their status.
func (r *AccountRepo) RecordLogin(ctx context.Context, username string, at time.Time) error {
	const query = `UPDATE accounts
		SET last_login_at = ?,
		    status = CASE WHEN status = 'inactive' THEN 'active' ELSE status END
		WHERE username = ?`
	return r.execOne(ctx, "record login", username, query, at.UTC().Format(sqliteTimeLayout), username)
}

// Delete removes the account for username.
func (r *AccountRepo) Delete(ctx context.Context, username string) error {
	const query = `DELETE FROM accounts WHERE username = ?`
	_, err := r.db.Writer.ExecContext(ctx, query, username)
	if err != nil {
		return fmt.Errorf("delete account %q: %w", username, err)
	}
	return nil
}

// execOne runs a single-row UPDATE and maps zero affected rows to ErrAccountNotFound.
func (r *AccountRepo) execOne(ctx context.Context, op, username, query string, args ...any) error {
	result, err := r.db.Writer.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %q: %w", op, username, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %q: %w", op, username, driven.ErrAccountNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AccountRepo) scanAccount(row rowScanner) (model.Account, error) {
	var (
		account             model.Account
		encrypted, status   string
		createdAt, updateAt string
		lastLogin           sql.NullString
	)
	if err := row.Scan(&account.ID, &account.Username, &encrypted, &status, &createdAt, &updateAt, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, err
		}
		return model.Account{}, fmt.Errorf("scan account: %w", err)
	}

	secret, err := r.decrypt(encrypted)
	if err != nil {
		return model.Account{}, fmt.Errorf("decrypt secret for %q: %w", account.Username, err)
	}
	account.Secret = secret

	if account.Status, err = model.ParseAccountStatus(status); err != nil {
		return model.Account{}, fmt.Errorf("account %q: %w", account.Username, err)
	}
	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Account{}, fmt.Errorf("parse created_at for %q: %w", account.Username, err)
	}
	if account.UpdatedAt, err = parseTime(updateAt); err != nil {
		return model.Account{}, fmt.Errorf("parse updated_at for %q: %w", account.Username, err)
	}
	if lastLogin.Valid {
		t, err := parseTime(lastLogin.String)
		if err != nil {
			return model.Account{}, fmt.Errorf("parse last_login_at for %q: %w", account.Username, err)
		}
		account.LastLoginAt = &t
	}

	return account, nil
}

func nowString() string {
	return time.Now().UTC().Format(sqliteTimeLayout)
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce (12 bytes) prepended to the ciphertext.
func (r *AccountRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *AccountRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}
