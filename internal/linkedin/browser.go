package linkedin

import (
	"context"
	"fmt"
)

// Browser is the browsing collaborator: a local browser-automation server the
// operator has already authenticated to LinkedIn. It is a single mutable
// session and must never be driven concurrently.
type Browser interface {
	// Health verifies the server is reachable and holds a live session.
	Health(ctx context.Context) error
	// Navigate loads a page in the authenticated session.
	Navigate(ctx context.Context, url string) error
	// PageSource returns the HTML of the currently loaded page.
	PageSource(ctx context.Context) (string, error)
	// Scroll scrolls the current page to trigger lazy loading.
	Scroll(ctx context.Context, pixels int) error
	// ProfileFields extracts structured fields from a profile page.
	ProfileFields(ctx context.Context, url string) (map[string]any, error)
	// Conversation returns the bodies of previous messages with the profile,
	// oldest first. An empty slice means no prior contact.
	Conversation(ctx context.Context, profileURL string) ([]string, error)
}

// NavigationError reports a failed page load.
type NavigationError struct {
	Reason string // timeout | blocked | not-found
	URL    string
	Err    error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ExtractionError reports a profile that could not be turned into a Candidate.
type ExtractionError struct {
	Reason string // not-found | malformed | rate-limited
	URL    string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
