package linkedin

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Candidate is one network-connection profile under consideration. It is
// immutable after creation; the canonical profile URL is the dedup key.
type Candidate struct {
	// ID is the canonical profile URL.
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Headline     string    `json:"headline,omitempty"`
	Company      string    `json:"company,omitempty"`
	RawProfile   string    `json:"raw_profile,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Extracted reports whether the candidate carries a profile snapshot or is
// still a bare URL waiting for the extracting stage.
func (c *Candidate) Extracted() bool {
	return c != nil && c.RawProfile != ""
}

// CanonicalProfileURL normalizes differently-formatted profile URLs to one
// stable dedup key: lowercase scheme and host, only the /in/<slug> path
// segment, no query, fragment or trailing slash.
func CanonicalProfileURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("profile url is empty")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse profile url %q: %w", raw, err)
	}

	host := strings.ToLower(parsed.Host)
	if host == "" || !strings.HasSuffix(host, "linkedin.com") {
		return "", fmt.Errorf("not a linkedin profile url: %q", raw)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != "in" || segments[1] == "" {
		return "", fmt.Errorf("not a profile path: %q", parsed.Path)
	}

	return fmt.Sprintf("https://www.linkedin.com/in/%s", strings.ToLower(segments[1])), nil
}
