// Package postgres stores users in PostgreSQL through pgx and ships the
// schema as embedded golang-migrate migrations.
//
// Email uniqueness is enforced by the primary key, so concurrent signups for
// one address resolve to exactly one row; the losers observe
// store.ErrUserAlreadyExists.
package postgres
