package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse html: %v", err)
	}
	return doc
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		wantT    string
		wantDesc string
	}{
		{
			name:  "plain title",
			html:  `<html><head><title>Launch Party</title></head></html>`,
			wantT: "Launch Party",
		},
		{
			name: "og tags win",
			html: `<html><head>
				<title>fallback</title>
				<meta property="og:title" content="Launch Party 2024">
				<meta property="og:description" content="Doors open at nine">
			</head></html>`,
			wantT:    "Launch Party 2024",
			wantDesc: "Doors open at nine",
		},
		{
			name: "meta description fallback",
			html: `<html><head>
				<title>Event</title>
				<meta name="description" content="An event page">
			</head></html>`,
			wantT:    "Event",
			wantDesc: "An event page",
		},
		{
			name:  "whitespace trimmed",
			html:  "<html><head><title>\n  Spaced Out  \n</title></head></html>",
			wantT: "Spaced Out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := extract(docFrom(t, tt.html))
			if p.Title != tt.wantT {
				t.Errorf("title = %q, want %q", p.Title, tt.wantT)
			}
			if p.Description != tt.wantDesc {
				t.Errorf("description = %q, want %q", p.Description, tt.wantDesc)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Destination</title></head></html>`))
	}))
	defer srv.Close()

	f := NewFetcher(2000, 1, zap.NewNop())
	p, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if p.Title != "Destination" {
		t.Errorf("title = %q, want Destination", p.Title)
	}
}

func TestFetchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(2000, 2, zap.NewNop())
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Error("expected error for 404 destination")
	}
}
