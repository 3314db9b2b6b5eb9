package linkedin

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubBrowser struct {
	pages         []string
	pageIndex     int
	fields        map[string]map[string]any
	navigated     []string
	scrolls       int
	navigateErr   error
	conversations map[string][]string
}

func (s *stubBrowser) Health(context.Context) error { return nil }

func (s *stubBrowser) Navigate(_ context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return s.navigateErr
}

func (s *stubBrowser) PageSource(context.Context) (string, error) {
	if s.pageIndex >= len(s.pages) {
		return "", nil
	}
	source := s.pages[s.pageIndex]
	s.pageIndex++
	return source, nil
}

func (s *stubBrowser) Scroll(context.Context, int) error {
	s.scrolls++
	return nil
}

func (s *stubBrowser) ProfileFields(_ context.Context, url string) (map[string]any, error) {
	fields, ok := s.fields[url]
	if !ok {
		return nil, &ExtractionError{Reason: "not-found", URL: url, Err: errors.New("no such profile")}
	}
	return fields, nil
}

func (s *stubBrowser) Conversation(_ context.Context, url string) ([]string, error) {
	return s.conversations[url], nil
}

const connectionsPage = `
<div class="mn-connection-card">
  <a class="mn-connection-card__link" href="https://www.linkedin.com/in/jane-doe/"></a>
  <span class="mn-connection-card__name"> Jane Doe </span>
</div>
<div class="mn-connection-card">
  <a class="mn-connection-card__link" href="/in/john-smith?miniProfile=x"></a>
  <span class="mn-connection-card__name">John Smith</span>
</div>
<div class="mn-connection-card">
  <a class="mn-connection-card__link" href="https://www.linkedin.com/in/JANE-DOE"></a>
  <span class="mn-connection-card__name">Jane Doe</span>
</div>`

func TestConnectionsParsesAndDeduplicates(t *testing.T) {
	t.Parallel()

	browser := &stubBrowser{pages: []string{connectionsPage}}
	extractor := NewExtractor(browser, nil)

	candidates, err := extractor.Connections(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 unique candidates, got %d", len(candidates))
	}
	if candidates[0].ID != "https://www.linkedin.com/in/jane-doe" {
		t.Fatalf("unexpected first candidate: %s", candidates[0].ID)
	}
	if candidates[0].Name != "Jane Doe" {
		t.Fatalf("expected the card name to be trimmed, got %q", candidates[0].Name)
	}
	if candidates[1].ID != "https://www.linkedin.com/in/john-smith" {
		t.Fatalf("relative href was not canonicalized: %s", candidates[1].ID)
	}

	if len(browser.navigated) != 1 || !strings.Contains(browser.navigated[0], "/mynetwork/") {
		t.Fatalf("expected a single navigation to the connections page, got %v", browser.navigated)
	}
}

func TestConnectionsStopsWhenNoNewCards(t *testing.T) {
	t.Parallel()

	browser := &stubBrowser{pages: []string{connectionsPage, connectionsPage, connectionsPage}}
	extractor := NewExtractor(browser, nil)

	candidates, err := extractor.Connections(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected repeat pages to add nothing, got %d candidates", len(candidates))
	}
}

func TestFromURLBuildsCandidate(t *testing.T) {
	t.Parallel()

	canonical := "https://www.linkedin.com/in/jane-doe"
	browser := &stubBrowser{fields: map[string]map[string]any{
		canonical: {
			"name":     "Jane Doe",
			"headline": "Partner at Acme Ventures",
			"company":  "Acme Ventures",
		},
	}}
	extractor := NewExtractor(browser, nil)

	candidate, err := extractor.FromURL(context.Background(), "https://www.linkedin.com/in/JANE-DOE?ref=search")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if candidate.ID != canonical {
		t.Fatalf("expected canonical ID, got %s", candidate.ID)
	}
	if candidate.Headline != "Partner at Acme Ventures" {
		t.Fatalf("unexpected headline: %q", candidate.Headline)
	}
	if !candidate.Extracted() {
		t.Fatalf("expected a raw profile snapshot")
	}
	if !strings.Contains(candidate.RawProfile, "Acme Ventures") {
		t.Fatalf("expected the snapshot to carry the profile fields")
	}
}

func TestFromURLRejectsNamelessProfile(t *testing.T) {
	t.Parallel()

	canonical := "https://www.linkedin.com/in/ghost"
	browser := &stubBrowser{fields: map[string]map[string]any{
		canonical: {"headline": "something"},
	}}

	_, err := NewExtractor(browser, nil).FromURL(context.Background(), canonical)

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) || extractionErr.Reason != "malformed" {
		t.Fatalf("expected a malformed ExtractionError, got %v", err)
	}
}
