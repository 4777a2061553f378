package topology

// Link is one directed entry of an intra-area cable. Every cable is stored as
// two entries, From->To and To->From; only the first one is canonical.
type Link struct {
	Id        string
	From      *Node
	To        *Node
	canonical bool
}

func (link *Link) ID() string {
	return link.Id
}

func (link *Link) Canonical() bool {
	return link.canonical
}

// nodePair identifies one directed entry by its endpoints, never by name.
type nodePair struct {
	from *Node
	to   *Node
}

func (link *Link) pair() nodePair {
	return nodePair{from: link.From, to: link.To}
}

func newLinkPair(from *Node, to *Node) (*Link, *Link) {
	forward := &Link{
		Id:        from.name + "-" + to.name,
		From:      from,
		To:        to,
		canonical: true,
	}
	backward := &Link{
		Id:        to.name + "-" + from.name,
		From:      to,
		To:        from,
		canonical: false,
	}
	return forward, backward
}
