package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./marginalia.db"

	// DefaultMediaDir is the default directory for annotation media and cached covers
	DefaultMediaDir = "./media"
)
