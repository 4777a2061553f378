package topology

import (
	"fmt"
	"strings"
	"sync"
)

// Area is a named partition of the topology. It owns its member nodes, the
// intra-area links between them and one implicit central node.
type Area struct {
	sync.Mutex
	name     string
	topology *GlobalTopology
	central  *Node
	nodes    []*Node
	byName   map[string]*Node
	links    []*Link
	pairs    map[nodePair]*Link
}

func newArea(topology *GlobalTopology, name string) *Area {
	area := &Area{
		Mutex:    sync.Mutex{},
		name:     name,
		topology: topology,
		nodes:    make([]*Node, 0),
		byName:   make(map[string]*Node),
		links:    make([]*Link, 0),
		pairs:    make(map[nodePair]*Link),
	}
	area.central = &Node{
		name: area.qualify(centralName),
		area: area,
		role: RoleCentral,
	}
	return area
}

func (area *Area) Name() string {
	return area.name
}

func (area *Area) String() string {
	return area.name
}

func (area *Area) Central() *Node {
	return area.central
}

func (area *Area) qualify(name string) string {
	return area.name + "-" + name
}

// CreateNode adds a member node named <area>-<name>. Unless Unlinked is given,
// the node is also linked to the area's central node.
func (area *Area) CreateNode(name string, opts ...NodeOption) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("node in area %s: %w", area.name, ErrInvalidName)
	}
	cfg := nodeConfig{
		role:          RoleStandard,
		linkToCentral: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// device names are unique across the whole topology, so the topology
	// lock comes first
	area.topology.Lock()
	defer area.topology.Unlock()
	area.Lock()
	defer area.Unlock()

	qualified := area.qualify(name)
	if area.topology.names[qualified] {
		return nil, fmt.Errorf("node %s: %w", qualified, ErrDuplicate)
	}

	node := &Node{
		name: qualified,
		area: area,
		role: cfg.role,
	}
	if cfg.linkToCentral {
		if _, err := area.insertLink(node, area.central); err != nil {
			return nil, err
		}
	}
	area.nodes = append(area.nodes, node)
	area.byName[qualified] = node
	area.topology.names[qualified] = true
	return node, nil
}

// Node looks a node up by its short or qualified name. The central node is
// found under "Central".
func (area *Area) Node(name string) (*Node, error) {
	area.Lock()
	defer area.Unlock()
	return area.lookup(name)
}

func (area *Area) lookup(name string) (*Node, error) {
	candidates := []string{area.qualify(name)}
	if strings.HasPrefix(name, area.name+"-") {
		candidates = []string{name, area.qualify(name)}
	}
	for _, candidate := range candidates {
		if candidate == area.central.name {
			return area.central, nil
		}
		if n, ok := area.byName[candidate]; ok {
			return n, nil
		}
	}
	return nil, fmt.Errorf("node %s in area %s: %w", name, area.name, ErrNotFound)
}

// Nodes returns the member nodes in creation order, without the central node.
func (area *Area) Nodes() []*Node {
	area.Lock()
	defer area.Unlock()
	nodes := make([]*Node, len(area.nodes))
	copy(nodes, area.nodes)
	return nodes
}

func (area *Area) contains(node *Node) bool {
	if node == nil || node.area != area {
		return false
	}
	if node == area.central {
		return true
	}
	n, ok := area.byName[node.name]
	return ok && n == node
}

// CreateLink cables a and b together. The pair is unordered: linking b to a
// after a to b fails with ErrDuplicate.
func (area *Area) CreateLink(a *Node, b *Node) (*Link, error) {
	area.Lock()
	defer area.Unlock()
	return area.insertLink(a, b)
}

func (area *Area) insertLink(a *Node, b *Node) (*Link, error) {
	if !area.contains(a) {
		return nil, fmt.Errorf("node %v in area %s: %w", a, area.name, ErrNotFound)
	}
	if !area.contains(b) {
		return nil, fmt.Errorf("node %v in area %s: %w", b, area.name, ErrNotFound)
	}
	if a == b {
		return nil, fmt.Errorf("node %s: %w", a.name, ErrSelfLink)
	}

	forward, backward := newLinkPair(a, b)
	if _, ok := area.pairs[forward.pair()]; ok {
		return nil, fmt.Errorf("link %s: %w", forward.Id, ErrDuplicate)
	}
	area.links = append(area.links, forward, backward)
	area.pairs[forward.pair()] = forward
	area.pairs[backward.pair()] = backward
	return forward, nil
}

// RemoveLink drops both directed entries of the a-b cable.
func (area *Area) RemoveLink(a *Node, b *Node) error {
	area.Lock()
	defer area.Unlock()

	forward, ok := area.pairs[nodePair{from: a, to: b}]
	if !ok {
		return fmt.Errorf("link %v-%v: %w", a, b, ErrNotFound)
	}
	backward := area.pairs[nodePair{from: b, to: a}]
	delete(area.pairs, forward.pair())
	delete(area.pairs, backward.pair())

	links := area.links[:0]
	for _, link := range area.links {
		if link == forward || link == backward {
			continue
		}
		links = append(links, link)
	}
	area.links = links
	return nil
}

// RemoveNode drops a member node. Links are never removed implicitly: the call
// fails with ErrInUse while any intra- or inter-area link still references it.
func (area *Area) RemoveNode(node *Node) error {
	area.topology.Lock()
	defer area.topology.Unlock()
	area.Lock()
	defer area.Unlock()

	if node == area.central {
		return fmt.Errorf("node %s is the central node of %s: %w", node.name, area.name, ErrInUse)
	}
	if !area.contains(node) {
		return fmt.Errorf("node %v in area %s: %w", node, area.name, ErrNotFound)
	}
	for _, link := range area.links {
		if link.From == node {
			return fmt.Errorf("node %s linked to %s: %w", node.name, link.To.name, ErrInUse)
		}
	}
	for _, link := range area.topology.links {
		if link.SourceNode == node {
			return fmt.Errorf("node %s linked to area %s: %w", node.name, link.TargetArea.name, ErrInUse)
		}
	}

	delete(area.byName, node.name)
	delete(area.topology.names, node.name)
	nodes := area.nodes[:0]
	for _, n := range area.nodes {
		if n != node {
			nodes = append(nodes, n)
		}
	}
	area.nodes = nodes
	return nil
}

// Links returns the canonical entry of every intra-area cable, in creation order.
func (area *Area) Links() []*Link {
	area.Lock()
	defer area.Unlock()
	links := make([]*Link, 0, len(area.links)/2)
	for _, link := range area.links {
		if link.canonical {
			links = append(links, link)
		}
	}
	return links
}

// GetNeighbors returns the nodes cabled to node, in link-insertion order.
func (area *Area) GetNeighbors(node *Node) []*Node {
	area.Lock()
	defer area.Unlock()
	neighbors := make([]*Node, 0)
	for _, link := range area.links {
		if link.From == node {
			neighbors = append(neighbors, link.To)
		}
	}
	return neighbors
}
