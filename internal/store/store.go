package store

import "github.com/starford/ansuz/internal/models"

// Store defines the durable per-deployment state operations: usage counts,
// favorites, tool usage, preferences, and the link-preview cache.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type Store interface {
	IncrementUsage(filename string) (int, error)
	UsageCounts() (map[string]int, error)
	TopUsed(n int) ([]models.UsageCount, error)

	ToggleFavorite(filename string) (bool, error)
	Favorites() ([]string, error)
	IsFavorite(filename string) (bool, error)

	IncrementToolUse(name string) (int, error)
	ToolCounts() (map[string]int, error)

	SetPreference(key, value string) error
	GetPreference(key string) (string, error)

	GetLinkPreview(url string) (*models.LinkPreview, error)
	PutLinkPreview(p models.LinkPreview) error

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
