package concept

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/carepath/carepath/internal/platform/terminology"
)

// -- Mock Repository --

type mockRepo struct {
	entries map[string]*CacheEntry
	inserts int
}

func newMockRepo() *mockRepo {
	return &mockRepo{entries: make(map[string]*CacheEntry)}
}

func (m *mockRepo) InsertIfAbsent(_ context.Context, conceptID, term string) error {
	m.inserts++
	if _, ok := m.entries[conceptID]; ok {
		return nil
	}
	m.entries[conceptID] = &CacheEntry{ConceptID: conceptID, EnglishTerm: term, CreatedAt: time.Now()}
	return nil
}

func (m *mockRepo) Get(_ context.Context, conceptID string) (*CacheEntry, error) {
	e, ok := m.entries[conceptID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return e, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*CacheEntry, int, error) {
	var result []*CacheEntry
	for _, e := range m.entries {
		result = append(result, e)
	}
	return result, len(result), nil
}

type mockLookup struct {
	concepts map[string]*terminology.Concept
	calls    int
}

func (m *mockLookup) Concept(_ context.Context, conceptID string) (*terminology.Concept, error) {
	m.calls++
	c, ok := m.concepts[conceptID]
	if !ok {
		return nil, fmt.Errorf("concept %s not found", conceptID)
	}
	return c, nil
}

// -- Tests --

func TestEnsure(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	if err := svc.Ensure(context.Background(), "271327008", "Pulse rate"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, err := svc.Get(context.Background(), "271327008")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.EnglishTerm != "Pulse rate" {
		t.Errorf("expected 'Pulse rate', got %s", entry.EnglishTerm)
	}
}

func TestEnsure_ExistingTermUntouched(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	svc.Ensure(context.Background(), "271327008", "Pulse rate")
	svc.Ensure(context.Background(), "271327008", "Heart rate")

	entry, _ := svc.Get(context.Background(), "271327008")
	if entry.EnglishTerm != "Pulse rate" {
		t.Errorf("cached term must be immutable, got %s", entry.EnglishTerm)
	}
}

func TestEnsure_EmptyID(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	if err := svc.Ensure(context.Background(), "", "x"); err == nil {
		t.Error("expected error for empty concept id")
	}
}

func TestEnsureFromLookup(t *testing.T) {
	repo := newMockRepo()
	lookup := &mockLookup{concepts: map[string]*terminology.Concept{
		"386661006": {ConceptID: "386661006", Active: true, PreferredTerm: "Fever"},
	}}
	svc := NewService(repo, lookup)

	entry, err := svc.EnsureFromLookup(context.Background(), "386661006")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.EnglishTerm != "Fever" {
		t.Errorf("expected 'Fever', got %s", entry.EnglishTerm)
	}
	if lookup.calls != 1 {
		t.Errorf("expected 1 lookup call, got %d", lookup.calls)
	}
}

func TestEnsureFromLookup_CacheHitSkipsLookup(t *testing.T) {
	repo := newMockRepo()
	lookup := &mockLookup{concepts: map[string]*terminology.Concept{}}
	svc := NewService(repo, lookup)

	svc.Ensure(context.Background(), "386661006", "Fever")

	entry, err := svc.EnsureFromLookup(context.Background(), "386661006")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.EnglishTerm != "Fever" {
		t.Errorf("expected 'Fever', got %s", entry.EnglishTerm)
	}
	if lookup.calls != 0 {
		t.Errorf("expected no lookup calls for a cache hit, got %d", lookup.calls)
	}
}

func TestEnsureFromLookup_UnknownConcept(t *testing.T) {
	svc := NewService(newMockRepo(), &mockLookup{concepts: map[string]*terminology.Concept{}})
	if _, err := svc.EnsureFromLookup(context.Background(), "999"); err == nil {
		t.Error("expected error for unknown concept")
	}
}
