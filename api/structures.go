package api

type Port struct {
	AdapterNumber int    `json:"adapter_number"`
	PortNumber    int    `json:"port_number"`
	Name          string `json:"name"`
	ShortName     string `json:"short_name"`
	LinkType      string `json:"link_type"`
}

type Node struct {
	NodeId    string `json:"node_id"`
	Name      string `json:"name"`
	NodeType  string `json:"node_type"`
	ComputeId string `json:"compute_id"`
	ProjectId string `json:"project_id"`
	Symbol    string `json:"symbol"`
	Status    string `json:"status"`
	Ports     []Port `json:"ports"`
}

// LinkEndpoint is one side of a cable: a node and the (adapter, port) pair it plugs into.
type LinkEndpoint struct {
	NodeId        string `json:"node_id"`
	AdapterNumber int    `json:"adapter_number"`
	PortNumber    int    `json:"port_number"`
}

type Link struct {
	LinkId    string         `json:"link_id"`
	ProjectId string         `json:"project_id"`
	Nodes     []LinkEndpoint `json:"nodes"`
}

// Connects reports whether the link cables nodeA and nodeB together, in either direction.
func (l Link) Connects(nodeA string, nodeB string) bool {
	if len(l.Nodes) != 2 {
		return false
	}
	return (l.Nodes[0].NodeId == nodeA && l.Nodes[1].NodeId == nodeB) ||
		(l.Nodes[0].NodeId == nodeB && l.Nodes[1].NodeId == nodeA)
}

type Project struct {
	ProjectId string `json:"project_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Path      string `json:"path"`
	Filename  string `json:"filename"`
}

type Compute struct {
	ComputeId string `json:"compute_id"`
	Name      string `json:"name"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Protocol  string `json:"protocol"`
	Connected bool   `json:"connected"`
}

type Template struct {
	TemplateId   string `json:"template_id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	ComputeId    string `json:"compute_id"`
	TemplateType string `json:"template_type"`
	Builtin      bool   `json:"builtin"`
}

type Version struct {
	Version string `json:"version"`
	Local   bool   `json:"local"`
}
