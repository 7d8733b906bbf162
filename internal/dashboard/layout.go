package dashboard

import "fmt"

// Grid geometry: three tiles per endpoint row on a 24 column grid
const (
	PartsPerEndpoint = 3
	PartColSpan      = 6
	PartRowSpan      = 4
)

// filteredPartPrefix is the fixed portal part id the time range filter binds to
const filteredPartPrefix = "StartboardPart-LogsDashboardPart-9badbd78-7607-4131-8fa1-8b85191432"

// FilteredPartCount is the number of part ids bound to the time range filter
const FilteredPartCount = 9

// Position is the grid cell of one part
type Position struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	ColSpan int `json:"colSpan"`
	RowSpan int `json:"rowSpan"`
}

// PartKey is the flat key of the part at offset for the endpoint at index
func PartKey(index, offset int) int {
	return index*PartsPerEndpoint + offset
}

// Layout returns the position of the part at offset for the endpoint at index
func Layout(index, offset int) Position {
	return Position{
		X:       offset * PartColSpan,
		Y:       index * PartRowSpan,
		ColSpan: PartColSpan,
		RowSpan: PartRowSpan,
	}
}

// FilteredPartID returns the i-th time range filter id: the prefix followed
// by the hex counter 0xed + 2*i.
func FilteredPartID(i int) string {
	return fmt.Sprintf("%s%x", filteredPartPrefix, 0xed+2*i)
}

// FilteredPartIDs returns the fixed list of FilteredPartCount ids
func FilteredPartIDs() []string {
	ids := make([]string, FilteredPartCount)
	for i := range ids {
		ids[i] = FilteredPartID(i)
	}
	return ids
}
