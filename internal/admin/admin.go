// Package admin holds the back-office operator accounts and the roster
// audit log. Operators are unrelated to the in-room admin role on a
// participant; they are service staff.
package admin

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/pokertables/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// GetOperatorAccount retrieves an operator account by username
func GetOperatorAccount(db *sqlx.DB, username string) (*models.OperatorAccount, error) {
	var acc models.OperatorAccount
	err := db.Get(&acc, `SELECT username, display_name, token_hash, created_at, updated_at FROM operator_accounts WHERE username=$1`, username)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// VerifyOperatorToken checks if the provided token matches the stored hash
func VerifyOperatorToken(hashedToken, plainToken string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken))
	return err == nil
}

// CreateOperatorAccount creates or updates an operator account (used for seeding)
func CreateOperatorAccount(db *sqlx.DB, username, displayName, plainToken string) error {
	hashedToken, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO operator_accounts (username, display_name, token_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (username) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			updated_at = NOW()
	`, username, displayName, string(hashedToken))

	return err
}

// ValidateOperator validates a username + token combination
func ValidateOperator(db *sqlx.DB, username, token string) (*models.OperatorAccount, error) {
	acc, err := GetOperatorAccount(db, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("operator account not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyOperatorToken(acc.TokenHash, token) {
		log.Printf("[ADMIN] Token verification failed for operator: %s", username)
		return nil, fmt.Errorf("invalid token")
	}

	return acc, nil
}

// LogRosterAction records a roster-changing action in the audit log.
// Audit failures are logged and swallowed; they never block the action.
func LogRosterAction(db *sqlx.DB, actor, ip, route, action string, details map[string]interface{}, success bool) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		log.Printf("[ADMIN] Failed to marshal audit details: %v", err)
		detailsJSON = []byte("{}")
	}

	_, err = db.Exec(`
		INSERT INTO roster_audit (actor, ip, route, action, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, actor, ip, route, action, detailsJSON, success)

	if err != nil {
		log.Printf("[ADMIN] Failed to log roster action: %v", err)
	}

	return err
}

// GetAuditLogs retrieves recent roster audit entries with pagination
func GetAuditLogs(db *sqlx.DB, limit, offset int) ([]models.RosterAudit, error) {
	var logs []models.RosterAudit
	query := `
		SELECT id, actor, ip, route, action, details, success, created_at
		FROM roster_audit
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	err := db.Select(&logs, query, limit, offset)
	return logs, err
}
