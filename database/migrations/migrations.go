// Package migrations contains all database migrations. Each file registers
// its migrations from init(); cmd/orderdesk imports this package for that
// side effect.
package migrations
