package domain

import (
	"fmt"
	"time"
)

// UpsertResult tells what an upsert did to the store.
type UpsertResult int

const (
	Unchanged UpsertResult = iota
	Created
	Updated
)

func (r UpsertResult) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// PassStats summarises one import or flush pass over a kind.
type PassStats struct {
	Kind      Kind
	Created   int
	Updated   int
	Unchanged int
	Deleted   int64
	Duration  time.Duration
}

func (s *PassStats) Add(r UpsertResult) {
	switch r {
	case Created:
		s.Created++
	case Updated:
		s.Updated++
	default:
		s.Unchanged++
	}
}

// Writes counts the rows the pass inserted or updated.
func (s PassStats) Writes() int {
	return s.Created + s.Updated
}

func (s PassStats) String() string {
	return fmt.Sprintf("%s: %d created, %d updated, %d unchanged", s.Kind, s.Created, s.Updated, s.Unchanged)
}
