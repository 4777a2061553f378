package topology

import "fmt"

// Endpoint selects which node of an area an inter-area link attaches to.
// The zero value is Central.
type Endpoint struct {
	node *Node
}

// Central attaches the link to the area's central node.
var Central = Endpoint{}

// At attaches the link to an explicit node of the area.
func At(node *Node) Endpoint {
	return Endpoint{node: node}
}

func (ep Endpoint) IsCentral() bool {
	return ep.node == nil
}

func (ep Endpoint) resolve(area *Area) (*Node, error) {
	if ep.node == nil {
		return area.central, nil
	}
	area.Lock()
	defer area.Unlock()
	if !area.contains(ep.node) {
		return nil, fmt.Errorf("node %s in area %s: %w", ep.node.name, area.name, ErrNotFound)
	}
	return ep.node, nil
}
