package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhere(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		clause, args := where(1)
		assert.Empty(t, clause)
		assert.Nil(t, args)
	})

	t.Run("single filter is not parenthesised", func(t *testing.T) {
		clause, args := where(1, NotDeleted())
		assert.Equal(t, "WHERE deleted = false", clause)
		assert.Empty(t, args)
	})

	t.Run("placeholders are renumbered from start", func(t *testing.T) {
		clause, args := where(3, NotDeleted(), Eq("username", "bob"), NotEq("id", int64(7)))
		assert.Equal(t, "WHERE (deleted = false) AND (username = $3) AND (id <> $4)", clause)
		assert.Equal(t, []any{"bob", int64(7)}, args)
	})

	t.Run("zero filters are skipped", func(t *testing.T) {
		clause, args := where(1, Filter{}, Eq("role", "USER"), ContainsFold("username", "  "))
		assert.Equal(t, "WHERE role = $1", clause)
		assert.Equal(t, []any{"USER"}, args)
	})

	t.Run("nested conjunction", func(t *testing.T) {
		clause, args := where(1, NotDeleted(), And(Eq("a", 1), Eq("b", 2)))
		assert.Equal(t, "WHERE (deleted = false) AND ((a = $1) AND (b = $2))", clause)
		assert.Equal(t, []any{1, 2}, args)
	})
}

func TestContainsFold(t *testing.T) {
	f := ContainsFold("full_name", " Ali_50% ")
	require.False(t, f.IsZero())

	expr, args := f.build(1)
	assert.Equal(t, `LOWER(full_name) LIKE $1 ESCAPE '\'`, expr)
	assert.Equal(t, []any{`%ali\_50\%%`}, args)

	assert.True(t, ContainsFold("full_name", "").IsZero())
}

func TestOnlyDeleted(t *testing.T) {
	clause, _ := where(1, OnlyDeleted())
	assert.Equal(t, "WHERE deleted = true", clause)
}
