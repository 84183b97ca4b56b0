// Package history persists a record of export runs in a SQLite database.
package history
