// Package postgres implements the internal/store interfaces on PostgreSQL
// through database/sql and the pgx driver. It also owns the embedded goose
// migrations that create the users, generations, generation_error_logs and
// flashcards tables.
package postgres
