// Package core defines the fundamental types and errors for lifedesk.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Storage errors
	ErrMigrationFailed = errors.New("migration failed")
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("duplicate record")
	ErrUnknownDriver   = errors.New("unknown database driver")

	// Note errors
	ErrNoteNotFound = errors.New("note not found")

	// Expense errors
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrNotATemplate      = errors.New("expense is not a recurring template")
	ErrInvalidRecurrence = errors.New("invalid recurrence rule")

	// Income errors
	ErrIncomeNotFound = errors.New("income entry not found")

	// Calendar errors
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrInvalidDirection   = errors.New("invalid direction")
	ErrInvalidDate        = errors.New("invalid date")

	// Import errors
	ErrNotConfigured        = errors.New("integration is not configured")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrDecryptionFailed     = errors.New("decryption failed")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)
