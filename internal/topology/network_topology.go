package topology

import (
	"fmt"
	"sync"
)

// GlobalTopology is the root of the model. Areas, inter-area links and medium
// nodes are only reachable through it.
type GlobalTopology struct {
	sync.Mutex
	areas   []*Area
	byName  map[string]*Area
	links   []*TopologyLink
	mediums []*MediumNode
	medium  map[string]*MediumNode
	// every device name in use: central, member and medium nodes
	names map[string]bool
}

func CreateTopology() *GlobalTopology {
	return &GlobalTopology{
		Mutex:   sync.Mutex{},
		areas:   make([]*Area, 0),
		byName:  make(map[string]*Area),
		links:   make([]*TopologyLink, 0),
		mediums: make([]*MediumNode, 0),
		medium:  make(map[string]*MediumNode),
		names:   make(map[string]bool),
	}
}

// CreateArea adds an area and its central node.
func (topo *GlobalTopology) CreateArea(name string) (*Area, error) {
	if name == "" {
		return nil, fmt.Errorf("area: %w", ErrInvalidName)
	}
	topo.Lock()
	defer topo.Unlock()

	if _, ok := topo.byName[name]; ok {
		return nil, fmt.Errorf("area %s: %w", name, ErrDuplicate)
	}
	area := newArea(topo, name)
	if topo.names[area.central.name] {
		return nil, fmt.Errorf("node %s: %w", area.central.name, ErrDuplicate)
	}
	topo.names[area.central.name] = true
	topo.areas = append(topo.areas, area)
	topo.byName[name] = area
	return area, nil
}

func (topo *GlobalTopology) Area(name string) (*Area, error) {
	topo.Lock()
	defer topo.Unlock()
	if area, ok := topo.byName[name]; ok {
		return area, nil
	}
	return nil, fmt.Errorf("area %s: %w", name, ErrNotFound)
}

// Areas returns the areas in creation order.
func (topo *GlobalTopology) Areas() []*Area {
	topo.Lock()
	defer topo.Unlock()
	areas := make([]*Area, len(topo.areas))
	copy(areas, topo.areas)
	return areas
}

func (topo *GlobalTopology) owns(area *Area) bool {
	if area == nil {
		return false
	}
	a, ok := topo.byName[area.name]
	return ok && a == area
}

// CreateLink connects source and target areas. Each Endpoint defaults to the
// area's central node. With withMedium the link goes through the medium node
// named after both areas, which is created on first use and shared afterwards.
func (topo *GlobalTopology) CreateLink(source *Area, target *Area, sourceEp Endpoint, targetEp Endpoint, withMedium bool) (*TopologyLink, error) {
	topo.Lock()
	defer topo.Unlock()

	if !topo.owns(source) {
		return nil, fmt.Errorf("area %v: %w", source, ErrNotFound)
	}
	if !topo.owns(target) {
		return nil, fmt.Errorf("area %v: %w", target, ErrNotFound)
	}
	if source == target {
		return nil, fmt.Errorf("area %s: %w", source.name, ErrSelfLink)
	}

	sourceNode, err := sourceEp.resolve(source)
	if err != nil {
		return nil, err
	}
	targetNode, err := targetEp.resolve(target)
	if err != nil {
		return nil, err
	}

	for _, link := range topo.links {
		if link.matches(sourceNode, targetNode) {
			return nil, fmt.Errorf("link %s: %w", link.Id, ErrDuplicate)
		}
	}

	var medium *MediumNode
	if withMedium {
		name := mediumName(source, target)
		if m, ok := topo.medium[name]; ok {
			medium = m
		} else {
			if topo.names[name] {
				return nil, fmt.Errorf("medium %s: %w", name, ErrDuplicate)
			}
			topo.names[name] = true
			medium = &MediumNode{
				name:  name,
				areas: []*Area{source, target},
			}
			topo.mediums = append(topo.mediums, medium)
			topo.medium[name] = medium
		}
	}

	forward, backward := newTopologyLinkPair(source, target, sourceNode, targetNode, medium)
	topo.links = append(topo.links, forward, backward)
	return forward, nil
}

// RemoveLink drops both entries of the link between the selected endpoints. A
// medium node no other link goes through is dropped with it.
func (topo *GlobalTopology) RemoveLink(source *Area, target *Area, sourceEp Endpoint, targetEp Endpoint) error {
	topo.Lock()
	defer topo.Unlock()

	if !topo.owns(source) {
		return fmt.Errorf("area %v: %w", source, ErrNotFound)
	}
	if !topo.owns(target) {
		return fmt.Errorf("area %v: %w", target, ErrNotFound)
	}
	sourceNode, err := sourceEp.resolve(source)
	if err != nil {
		return err
	}
	targetNode, err := targetEp.resolve(target)
	if err != nil {
		return err
	}

	var removed *TopologyLink
	links := make([]*TopologyLink, 0, len(topo.links))
	for _, link := range topo.links {
		if link.matches(sourceNode, targetNode) || link.matches(targetNode, sourceNode) {
			removed = link
			continue
		}
		links = append(links, link)
	}
	if removed == nil {
		return fmt.Errorf("link %s-%s: %w", sourceNode.name, targetNode.name, ErrNotFound)
	}
	topo.links = links

	if removed.Medium != nil {
		for _, link := range topo.links {
			if link.Medium == removed.Medium {
				return nil
			}
		}
		delete(topo.medium, removed.Medium.name)
		delete(topo.names, removed.Medium.name)
		mediums := topo.mediums[:0]
		for _, m := range topo.mediums {
			if m != removed.Medium {
				mediums = append(mediums, m)
			}
		}
		topo.mediums = mediums
	}
	return nil
}

// Links returns the canonical entry of every inter-area link, in creation order.
func (topo *GlobalTopology) Links() []*TopologyLink {
	topo.Lock()
	defer topo.Unlock()
	links := make([]*TopologyLink, 0, len(topo.links)/2)
	for _, link := range topo.links {
		if link.canonical {
			links = append(links, link)
		}
	}
	return links
}

// LinksFrom returns every directed entry leaving area, canonical or not.
func (topo *GlobalTopology) LinksFrom(area *Area) []*TopologyLink {
	topo.Lock()
	defer topo.Unlock()
	links := make([]*TopologyLink, 0)
	for _, link := range topo.links {
		if link.SourceArea == area {
			links = append(links, link)
		}
	}
	return links
}

func (topo *GlobalTopology) MediumNodes() []*MediumNode {
	topo.Lock()
	defer topo.Unlock()
	mediums := make([]*MediumNode, len(topo.mediums))
	copy(mediums, topo.mediums)
	return mediums
}

// GetNeighbors maps every area reachable from area to the nodes its links land on.
func (topo *GlobalTopology) GetNeighbors(area *Area) map[*Area][]*Node {
	neighbors := make(map[*Area][]*Node)
	for _, link := range topo.LinksFrom(area) {
		neighbors[link.TargetArea] = append(neighbors[link.TargetArea], link.TargetNode)
	}
	return neighbors
}
