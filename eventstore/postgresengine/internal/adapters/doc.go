// Package adapters lets the PostgreSQL engine run on pgxpool.Pool, sql.DB or sqlx.DB.
//
// Statements carry $n placeholders as rendered by goqu's postgres dialect in prepared mode.
package adapters
