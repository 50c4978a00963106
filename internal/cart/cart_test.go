package cart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-gateway/internal/localstore"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	slots, err := localstore.NewStore(dir)
	require.NoError(t, err)
	return NewStore(slots), dir
}

func line(id int64, name string, price string, qty int) Line {
	return Line{
		ProductID: id,
		Name:      name,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestAddMergesByProductID(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Add(line(7, "Yoga Mat", "499", 1))
	require.NoError(t, err)
	lines, err := s.Add(line(7, "Yoga Mat", "499", 2))
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 3, s.Count())
}

func TestAddDistinctProductsAppend(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Add(line(1, "Dumbbell", "750", 2))
	require.NoError(t, err)
	lines, err := s.Add(line(2, "Kettlebell", "1200", 1))
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].ProductID)
	assert.Equal(t, int64(2), lines[1].ProductID)
}

func TestAddNonPositiveQuantityIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)

	lines, err := s.Add(line(1, "Dumbbell", "750", 0))
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = s.Add(line(1, "Dumbbell", "750", -2))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestSetQuantity(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Add(line(5, "Rower", "15000", 1))
	require.NoError(t, err)

	lines, err := s.SetQuantity(5, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, lines[0].Quantity)

	// Non-positive leaves the line alone.
	lines, err = s.SetQuantity(5, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, lines[0].Quantity)

	_, err = s.SetQuantity(99, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Add(line(1, "Dumbbell", "750", 1))
	require.NoError(t, err)
	_, err = s.Add(line(2, "Kettlebell", "1200", 1))
	require.NoError(t, err)

	lines, err := s.Remove(1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].ProductID)

	_, err = s.Remove(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClear(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Add(line(1, "Dumbbell", "750", 3))
	require.NoError(t, err)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Load())
	assert.Zero(t, s.Count())
}

func TestLoadMalformedSlotReadsAsEmpty(t *testing.T) {
	s, dir := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, localstore.SlotCart+".json"), []byte("][ nope"), 0o644))

	assert.Empty(t, s.Load())

	// A mutation on top of the broken slot starts fresh instead of failing.
	lines, err := s.Add(line(3, "Bench", "4500", 1))
	require.NoError(t, err)
	require.Len(t, lines, 1)
}

func TestReplace(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Add(line(1, "Dumbbell", "750", 1))
	require.NoError(t, err)

	require.NoError(t, s.Replace([]Line{line(9, "Treadmill", "42000", 1)}))
	lines := s.Load()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(9), lines[0].ProductID)

	require.NoError(t, s.Replace(nil))
	assert.Empty(t, s.Load())
}
