// Package db embeds the database schema used by the postgres storage
// backend.
package db

import _ "embed"

// Schema holds the DDL for the four entities: carts, orders, discount
// codes, and the order counter.
//
//go:embed migrations/001_schema.sql
var Schema string
