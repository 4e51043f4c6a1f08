package archive

import "testing"

func TestWorkIDFromURL(t *testing.T) {
	cases := []struct {
		url    string
		wantID int
		wantOK bool
	}{
		{"https://archiveofourown.org/works/12345", 12345, true},
		{"https://archiveofourown.org/works/12345/chapters/1", 12345, true},
		{"https://archiveofourown.org/works/12345?view_adult=true", 12345, true},
		{"https://archiveofourown.org/series/999", 0, false},
		{"not a url at all", 0, false},
	}
	for _, c := range cases {
		id, ok := WorkIDFromURL(c.url)
		if id != c.wantID || ok != c.wantOK {
			t.Errorf("WorkIDFromURL(%q) = (%d, %v), want (%d, %v)", c.url, id, ok, c.wantID, c.wantOK)
		}
	}
}

func TestSeriesIDFromURL(t *testing.T) {
	cases := []struct {
		url    string
		wantID int
		wantOK bool
	}{
		{"https://archiveofourown.org/series/4567", 4567, true},
		{"https://archiveofourown.org/series/4567/", 4567, true},
		{"https://archiveofourown.org/series/not-a-number", 0, false},
		{"https://archiveofourown.org/works/1", 0, false},
	}
	for _, c := range cases {
		id, ok := SeriesIDFromURL(c.url)
		if id != c.wantID || ok != c.wantOK {
			t.Errorf("SeriesIDFromURL(%q) = (%d, %v), want (%d, %v)", c.url, id, ok, c.wantID, c.wantOK)
		}
	}
}

func TestNormalizeListingURL(t *testing.T) {
	host := "archiveofourown.org"

	got, err := NormalizeListingURL(host, "https://archiveofourown.org/tags/Fandom/works?page=3", nil)
	if err != nil {
		t.Fatalf("NormalizeListingURL (strip page) error: %v", err)
	}
	if got != "https://archiveofourown.org/tags/Fandom/works" {
		t.Errorf("got %q, want page param stripped", got)
	}

	page := 5
	got, err = NormalizeListingURL(host, "https://archiveofourown.org/tags/Fandom/works", &page)
	if err != nil {
		t.Fatalf("NormalizeListingURL (set page) error: %v", err)
	}
	if got != "https://archiveofourown.org/tags/Fandom/works?page=5" {
		t.Errorf("got %q, want page=5 appended", got)
	}

	_, err = NormalizeListingURL(host, "https://example.com/works", nil)
	if err != ErrNotArchiveHost {
		t.Errorf("NormalizeListingURL on a foreign host should return ErrNotArchiveHost, got %v", err)
	}
}
