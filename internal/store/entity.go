// Package store is the soft-delete persistence layer shared by every record
// type. Records embed Entity and describe their table through a Schema; the
// generic Store then provides logical deletion, filtered listing that hides
// deleted rows, and deleted-aware lookup. All queries are plain SQL through pgx.
package store

import "time"

// Entity is the header every persisted record embeds.
type Entity struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Deleted   bool      `json:"deleted"`
}

// Header gives storage code access to the embedded header.
func (e *Entity) Header() *Entity { return e }

// IsNew reports whether the record has not been inserted yet.
func (e *Entity) IsNew() bool { return e.ID == 0 }

// Record is satisfied by a pointer to any struct embedding Entity.
type Record interface {
	Header() *Entity
}

// Schema maps a record type onto its table. Columns lists the domain columns
// only; the header columns (id, created_at, updated_at, deleted) are managed
// by the Store. Values and Fields must follow the order of Columns.
type Schema[T Record] struct {
	Table   string
	Columns []string
	// New returns an empty record ready to be scanned into.
	New func() T
	// Values returns the column values used for INSERT and UPDATE.
	Values func(T) []any
	// Fields returns scan destinations for the domain columns.
	Fields func(T) []any
}

var headerColumns = []string{"id", "created_at", "updated_at", "deleted"}

func headerFields(e *Entity) []any {
	return []any{&e.ID, &e.CreatedAt, &e.UpdatedAt, &e.Deleted}
}
