package interfaces

import (
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is wrapped by every backend when a keyed record does not exist
var ErrNotFound = goerr.New("not found")

// Repository defines the interface for data persistence
type Repository interface {
	Token() TokenRepository
	Message() MessageRepository
	Event() EventRepository

	// Close releases the backend connection
	Close() error
}

// TableNames are the backend table (or collection, or key prefix) names
type TableNames struct {
	Token   string
	Message string
	Event   string
}

// DefaultTableNames returns the names used when none are configured
func DefaultTableNames() TableNames {
	return TableNames{
		Token:   "InstaAI-Tokens",
		Message: "InstaAI-Messages",
		Event:   "InstaAI-WebhookEvents",
	}
}

// WithDefaults fills empty names with the defaults
func (t TableNames) WithDefaults() TableNames {
	d := DefaultTableNames()
	if t.Token == "" {
		t.Token = d.Token
	}
	if t.Message == "" {
		t.Message = d.Message
	}
	if t.Event == "" {
		t.Event = d.Event
	}
	return t
}
