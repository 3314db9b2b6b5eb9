package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	baseURL        = "https://www.linkedin.com"
	connectionsURL = baseURL + "/mynetwork/invite-connect/connections/"

	connectionCardSelector = ".mn-connection-card"
	connectionLinkSelector = ".mn-connection-card__link"
	connectionNameSelector = ".mn-connection-card__name"

	scrollStep = 1000
)

// Extractor turns connection pages and profile URLs into Candidates.
type Extractor struct {
	browser Browser
	logger  *zap.Logger
}

func NewExtractor(browser Browser, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{browser: browser, logger: logger}
}

// FromURL extracts one profile into a Candidate. The returned candidate ID is
// always the canonical profile URL.
func (e *Extractor) FromURL(ctx context.Context, rawURL string) (*Candidate, error) {
	canonical, err := CanonicalProfileURL(rawURL)
	if err != nil {
		return nil, &ExtractionError{Reason: "malformed", URL: rawURL, Err: err}
	}

	fields, err := e.browser.ProfileFields(ctx, canonical)
	if err != nil {
		return nil, err
	}

	var profile struct {
		Name     string `mapstructure:"name"`
		Headline string `mapstructure:"headline"`
		Company  string `mapstructure:"company"`
	}
	if err := mapstructure.Decode(fields, &profile); err != nil {
		return nil, &ExtractionError{Reason: "malformed", URL: canonical, Err: err}
	}

	if strings.TrimSpace(profile.Name) == "" {
		return nil, &ExtractionError{
			Reason: "malformed",
			URL:    canonical,
			Err:    fmt.Errorf("profile has no name field"),
		}
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, &ExtractionError{Reason: "malformed", URL: canonical, Err: err}
	}

	candidate := &Candidate{
		ID:           canonical,
		Name:         strings.TrimSpace(profile.Name),
		Headline:     strings.TrimSpace(profile.Headline),
		Company:      strings.TrimSpace(profile.Company),
		RawProfile:   string(raw),
		DiscoveredAt: time.Now().UTC(),
	}

	e.logger.Debug("profile extracted",
		zap.String("candidate_id", candidate.ID),
		zap.String("name", candidate.Name),
	)

	return candidate, nil
}

// Connections enumerates the operator's connections page and returns bare
// candidates (canonical URL and display name only); the full profile snapshot
// is fetched later when each record reaches the extracting stage. Enumeration
// is best-effort and bounded by maxPages scroll rounds.
func (e *Extractor) Connections(ctx context.Context, maxPages int) ([]*Candidate, error) {
	if maxPages <= 0 {
		maxPages = 5
	}

	if err := e.browser.Navigate(ctx, connectionsURL); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	candidates := make([]*Candidate, 0)

	for page := 0; page < maxPages; page++ {
		source, err := e.browser.PageSource(ctx)
		if err != nil {
			return nil, err
		}

		found, err := parseConnectionCards(source, seen)
		if err != nil {
			return nil, &ExtractionError{Reason: "malformed", URL: connectionsURL, Err: err}
		}
		candidates = append(candidates, found...)

		if len(found) == 0 && page > 0 {
			break
		}

		if err := e.browser.Scroll(ctx, scrollStep); err != nil {
			e.logger.Debug("scroll failed, stopping enumeration", zap.Error(err))
			break
		}
	}

	e.logger.Info("connections enumerated",
		zap.Int("count", len(candidates)),
		zap.Int("max_pages", maxPages),
	)

	return candidates, nil
}

func parseConnectionCards(source string, seen map[string]struct{}) ([]*Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse connections page: %w", err)
	}

	var candidates []*Candidate
	doc.Find(connectionCardSelector).Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find(connectionLinkSelector).Attr("href")
		if !ok {
			return
		}

		canonical, err := CanonicalProfileURL(href)
		if err != nil {
			return
		}

		if _, dup := seen[canonical]; dup {
			return
		}
		seen[canonical] = struct{}{}

		candidates = append(candidates, &Candidate{
			ID:           canonical,
			Name:         strings.TrimSpace(card.Find(connectionNameSelector).Text()),
			DiscoveredAt: time.Now().UTC(),
		})
	})

	return candidates, nil
}
