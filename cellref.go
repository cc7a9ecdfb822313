package xlsxturbo

import (
	"fmt"
	"strconv"
	"strings"
)

// CellRef is a 0-based (row, col) coordinate.
type CellRef struct {
	Row int
	Col int
}

// CellRange is an inclusive 0-based rectangle.
type CellRange struct {
	First CellRef
	Last  CellRef
}

func (c CellRef) String() string {
	return cell(c.Row+1, c.Col+1)
}

func (r CellRange) String() string {
	return r.First.String() + ":" + r.Last.String()
}

var twentySixTable = []string{"", "A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z"}

// toTwentySix converts a 1-based column number to its letters (1 -> A, 27 -> AA).
func toTwentySix(n int) string {
	var str string
	for n > 0 {
		k := n % 26
		if k == 0 {
			k = 26
		}
		str = twentySixTable[k] + str
		n = (n - k) / 26
	}
	return str
}

// cell names a 1-based (row, col) coordinate, e.g. cell(1, 1) = "A1".
func cell(x, y int) string {
	return fmt.Sprintf("%s%d", toTwentySix(y), x)
}

// maxRows and maxCols are the sheet limits of the package format.
const (
	maxRows = 1048576
	maxCols = 16384
)

// ParseCellRef parses "B3" into the 0-based CellRef{Row: 2, Col: 1}.
func ParseCellRef(ref string) (CellRef, error) {
	s := strings.ToUpper(strings.TrimSpace(ref))
	if s == "" {
		return CellRef{}, fmt.Errorf("empty cell reference")
	}
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 {
		return CellRef{}, fmt.Errorf("invalid cell reference '%s': no column letters", ref)
	}
	if i == len(s) {
		return CellRef{}, fmt.Errorf("invalid cell reference '%s': no row number", ref)
	}
	col := 0
	for _, c := range s[:i] {
		col = col*26 + int(c-'A'+1)
		if col > maxCols {
			return CellRef{}, fmt.Errorf("invalid cell reference '%s': column out of range", ref)
		}
	}
	row, err := strconv.Atoi(s[i:])
	if err != nil || !allDigits(s[i:]) {
		return CellRef{}, fmt.Errorf("invalid row number in cell reference '%s'", ref)
	}
	if row < 1 || row > maxRows {
		return CellRef{}, fmt.Errorf("invalid cell reference '%s': row number must be between 1 and %d", ref, maxRows)
	}
	return CellRef{Row: row - 1, Col: col - 1}, nil
}

// ParseCellRange parses "A1:D1". The corners are normalized so First is the
// top-left cell.
func ParseCellRange(s string) (CellRange, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return CellRange{}, fmt.Errorf("invalid cell range '%s': expected format 'A1:B2'", s)
	}
	a, err := ParseCellRef(parts[0])
	if err != nil {
		return CellRange{}, err
	}
	b, err := ParseCellRef(parts[1])
	if err != nil {
		return CellRange{}, err
	}
	return CellRange{
		First: CellRef{Row: min(a.Row, b.Row), Col: min(a.Col, b.Col)},
		Last:  CellRef{Row: max(a.Row, b.Row), Col: max(a.Col, b.Col)},
	}, nil
}
