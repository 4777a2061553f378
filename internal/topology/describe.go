package topology

import "sort"

// Description is a JSON friendly adjacency dump of a topology.
type Description struct {
	Areas     map[string]map[string][]string `json:"areas" yaml:"areas"`
	AreaLinks map[string]map[string][]string `json:"area_links" yaml:"area_links"`
}

// Describe lists, per area, every member node with its neighbors, and per
// source area the inter-area hops, going through medium nodes when present.
func (topo *GlobalTopology) Describe() Description {
	desc := Description{
		Areas:     make(map[string]map[string][]string),
		AreaLinks: make(map[string]map[string][]string),
	}

	for _, area := range topo.Areas() {
		nodes := make(map[string][]string)
		for _, node := range area.Nodes() {
			names := make([]string, 0)
			for _, neighbor := range area.GetNeighbors(node) {
				names = append(names, neighbor.name)
			}
			sort.Strings(names)
			nodes[node.name] = names
		}
		desc.Areas[area.name] = nodes
	}

	for _, link := range topo.Links() {
		hops, ok := desc.AreaLinks[link.SourceArea.name]
		if !ok {
			hops = make(map[string][]string)
			desc.AreaLinks[link.SourceArea.name] = hops
		}
		if link.Medium != nil {
			hops[link.SourceNode.name] = append(hops[link.SourceNode.name], link.Medium.name)
			hops[link.Medium.name] = append(hops[link.Medium.name], link.TargetNode.name)
		} else {
			hops[link.SourceNode.name] = append(hops[link.SourceNode.name], link.TargetNode.name)
		}
	}
	return desc
}
