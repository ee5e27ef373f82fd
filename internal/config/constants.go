package config

const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./locallibrary.db"

	// DefaultProxyHeader carries the username asserted by an upstream identity provider
	DefaultProxyHeader = "X-Forwarded-User"
)
