package topology

import "strings"

// MediumNode is a synthetic transit device joining two or more areas.
type MediumNode struct {
	name  string
	areas []*Area
}

func mediumName(areas ...*Area) string {
	names := make([]string, 0, len(areas))
	for _, area := range areas {
		names = append(names, area.name)
	}
	return "Medium-" + strings.Join(names, "-")
}

func (medium *MediumNode) ID() string {
	return medium.name
}

func (medium *MediumNode) Name() string {
	return medium.name
}

func (medium *MediumNode) Areas() []*Area {
	areas := make([]*Area, len(medium.areas))
	copy(areas, medium.areas)
	return areas
}

func (medium *MediumNode) String() string {
	return medium.name
}
