package terminology

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientConcept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/concepts/271807003" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Concept{
			ConceptID:          "271807003",
			Active:             true,
			PreferredTerm:      "Eruption of skin",
			FullySpecifiedName: "Eruption of skin (disorder)",
			DefinitionStatus:   "primitive",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	concept, err := c.Concept(context.Background(), "271807003")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if concept.PreferredTerm != "Eruption of skin" {
		t.Errorf("unexpected term %q", concept.PreferredTerm)
	}
	if !concept.Active {
		t.Error("expected active concept")
	}
}

func TestClientConcept_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Concept(context.Background(), "0"); err == nil {
		t.Fatal("expected error for unknown concept")
	}
}

func TestClientConcept_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Concept(context.Background(), "1"); err == nil {
		t.Fatal("expected error on upstream failure")
	}
}

func TestClientConcept_EscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode(Concept{ConceptID: "a/b"})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Concept(context.Background(), "a/b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/concepts/a%2Fb" {
		t.Errorf("concept id must be path-escaped, got %s", gotPath)
	}
}
