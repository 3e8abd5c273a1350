package concept

import "time"

// CacheEntry maps to the concept_cache table. Entries are append-only:
// a concept id is inserted once with the preferred term seen at that
// moment and never updated afterwards.
type CacheEntry struct {
	ConceptID   string    `db:"concept_id" json:"concept_id"`
	EnglishTerm string    `db:"english_term" json:"english_term"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
