package xlsxturbo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwentySix(t *testing.T) {
	for n, want := range map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ", 53: "BA", 702: "ZZ", 703: "AAA", 16384: "XFD"} {
		assert.Equal(t, want, toTwentySix(n), n)
	}
	assert.Equal(t, "C7", cell(7, 3))
	assert.Equal(t, "B3", CellRef{Row: 2, Col: 1}.String())
}

func TestParseCellRef(t *testing.T) {
	ref, err := ParseCellRef("b3")
	require.NoError(t, err)
	assert.Equal(t, CellRef{Row: 2, Col: 1}, ref)

	ref, err = ParseCellRef("XFD1048576")
	require.NoError(t, err)
	assert.Equal(t, CellRef{Row: maxRows - 1, Col: maxCols - 1}, ref)

	for _, bad := range []string{"", "A", "12", "A0", "XFE1", "A1048577", "A1B", "A-1"} {
		_, err := ParseCellRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseCellRange(t *testing.T) {
	rng, err := ParseCellRange("D5:B2")
	require.NoError(t, err)
	assert.Equal(t, CellRange{First: CellRef{Row: 1, Col: 1}, Last: CellRef{Row: 4, Col: 3}}, rng)
	assert.Equal(t, "B2:D5", rng.String())

	_, err = ParseCellRange("A1")
	assert.Error(t, err)
	_, err = ParseCellRange("A1:B2:C3")
	assert.Error(t, err)
}
