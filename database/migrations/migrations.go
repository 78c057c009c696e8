// Package migrations holds the schema migrations. Each file registers its
// migrations from init(); cmd/bazaar blank-imports the package.
package migrations
