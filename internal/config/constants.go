package config

// DefaultDatabasePath is where the dashboard keeps its SQLite database when
// DATABASE_PATH is not set.
const DefaultDatabasePath = "./ads-dashboard.db"
