package linkedin

import "testing"

func TestCanonicalProfileURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "https://www.linkedin.com/in/jane-doe", "https://www.linkedin.com/in/jane-doe"},
		{"trailing slash", "https://www.linkedin.com/in/jane-doe/", "https://www.linkedin.com/in/jane-doe"},
		{"query and fragment", "https://www.linkedin.com/in/jane-doe?originalSubdomain=uk#about", "https://www.linkedin.com/in/jane-doe"},
		{"regional host", "https://uk.linkedin.com/in/jane-doe", "https://www.linkedin.com/in/jane-doe"},
		{"no scheme", "linkedin.com/in/Jane-Doe", "https://www.linkedin.com/in/jane-doe"},
		{"uppercase slug", "https://www.linkedin.com/in/JANE-DOE", "https://www.linkedin.com/in/jane-doe"},
		{"extra path segments", "https://www.linkedin.com/in/jane-doe/details/experience/", "https://www.linkedin.com/in/jane-doe"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CanonicalProfileURL(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Fatalf("CanonicalProfileURL(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestCanonicalProfileURLRejectsNonProfiles(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"https://example.com/in/jane-doe",
		"https://www.linkedin.com/company/acme",
		"https://www.linkedin.com/feed/",
		"https://www.linkedin.com/in/",
	}

	for _, input := range inputs {
		if _, err := CanonicalProfileURL(input); err == nil {
			t.Fatalf("expected an error for %q", input)
		}
	}
}

func TestExtracted(t *testing.T) {
	t.Parallel()

	bare := &Candidate{ID: "https://www.linkedin.com/in/jane-doe"}
	if bare.Extracted() {
		t.Fatalf("a bare candidate must not report as extracted")
	}

	full := &Candidate{ID: bare.ID, RawProfile: `{"name":"Jane"}`}
	if !full.Extracted() {
		t.Fatalf("a candidate with a snapshot must report as extracted")
	}

	var nilCandidate *Candidate
	if nilCandidate.Extracted() {
		t.Fatalf("nil candidate must not report as extracted")
	}
}
