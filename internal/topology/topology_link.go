package topology

// TopologyLink is one directed entry of an inter-area link. Every link is
// stored as source->target and target->source; only the first is canonical.
type TopologyLink struct {
	Id         string
	SourceArea *Area
	TargetArea *Area
	SourceNode *Node
	TargetNode *Node
	Medium     *MediumNode
	canonical  bool
}

func (link *TopologyLink) ID() string {
	return link.Id
}

func (link *TopologyLink) Canonical() bool {
	return link.canonical
}

func (link *TopologyLink) matches(sourceNode *Node, targetNode *Node) bool {
	return link.SourceNode == sourceNode && link.TargetNode == targetNode
}

func newTopologyLinkPair(source *Area, target *Area, sourceNode *Node, targetNode *Node, medium *MediumNode) (*TopologyLink, *TopologyLink) {
	forward := &TopologyLink{
		Id:         sourceNode.name + "-" + targetNode.name,
		SourceArea: source,
		TargetArea: target,
		SourceNode: sourceNode,
		TargetNode: targetNode,
		Medium:     medium,
		canonical:  true,
	}
	backward := &TopologyLink{
		Id:         targetNode.name + "-" + sourceNode.name,
		SourceArea: target,
		TargetArea: source,
		SourceNode: targetNode,
		TargetNode: sourceNode,
		Medium:     medium,
		canonical:  false,
	}
	return forward, backward
}
