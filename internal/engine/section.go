package engine

import "github.com/stemsi/exstem-mockexam/internal/model"

var sectionNames = []string{"Section A", "Section B", "Section C"}

// Partition maps a question count to the fixed sectional layout:
// 15 is one section, 25 is two (12 + 13), anything else uses the
// three-part 50 question layout (15 + 20 + 15).
func Partition(questionCount int) []model.Section {
	var bounds [][2]int
	switch questionCount {
	case 15:
		bounds = [][2]int{{0, 14}}
	case 25:
		bounds = [][2]int{{0, 11}, {12, 24}}
	default:
		bounds = [][2]int{{0, 14}, {15, 34}, {35, 49}}
	}

	sections := make([]model.Section, len(bounds))
	for i, b := range bounds {
		sections[i] = model.Section{Name: sectionNames[i], StartIndex: b[0], EndIndex: b[1]}
	}
	return sections
}

// PartitionClipped applies the layout of nominal to a batch of actual
// questions. Sections past the end are dropped and the last one is cut (or
// stretched) so the result always covers [0, actual-1] exactly.
func PartitionClipped(nominal, actual int) []model.Section {
	if actual <= 0 {
		return nil
	}
	layout := Partition(nominal)
	out := make([]model.Section, 0, len(layout))
	for _, s := range layout {
		if s.StartIndex >= actual {
			break
		}
		if s.EndIndex >= actual {
			s.EndIndex = actual - 1
		}
		out = append(out, s)
	}
	out[len(out)-1].EndIndex = actual - 1
	return out
}
