package provision

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strconv"
	"sync"

	"github.com/David-Antunes/gone-topo/api"
	addApi "github.com/David-Antunes/gone-topo/api/Add"
	connectApi "github.com/David-Antunes/gone-topo/api/Connect"
)

// Call is one request the MockClient served.
type Call struct {
	Op   string
	Name string
}

// MockClient is an in-memory emulation server. It enforces the same rules the
// real one does for what this module needs: unique node names and one cable
// per port.
type MockClient struct {
	sync.Mutex
	projects []api.Project
	computes []api.Compute
	layouts  map[string][]api.Port
	nodes    map[string][]api.Node
	links    map[string][]api.Link
	failures map[string]error
	calls    []Call
	seq      int
}

var _ Provisioner = (*MockClient)(nil)

const (
	MockProjectId = "project-1"
	MockComputeId = "local"
)

func switchPorts(n int) []api.Port {
	ports := make([]api.Port, 0, n)
	for i := 0; i < n; i++ {
		ports = append(ports, api.Port{
			AdapterNumber: 0,
			PortNumber:    i,
			Name:          "Ethernet" + strconv.Itoa(i),
			ShortName:     "e" + strconv.Itoa(i),
			LinkType:      "ethernet",
		})
	}
	return ports
}

// NewMockClient returns a server with one project, "untitled", and one
// compute, "local".
func NewMockClient() *MockClient {
	return &MockClient{
		projects: []api.Project{{
			ProjectId: MockProjectId,
			Name:      "untitled",
			Status:    "closed",
			Path:      "/projects/untitled",
			Filename:  "untitled.gns3",
		}},
		computes: []api.Compute{{
			ComputeId: MockComputeId,
			Name:      "local",
			Host:      "127.0.0.1",
			Port:      3080,
			Protocol:  "http",
			Connected: true,
		}},
		layouts: map[string][]api.Port{
			"vpcs":            switchPorts(1),
			"ethernet_switch": switchPorts(8),
		},
		nodes:    make(map[string][]api.Node),
		links:    make(map[string][]api.Link),
		failures: make(map[string]error),
		calls:    make([]Call, 0),
	}
}

// SetLayout sets the ports every new node of nodeType gets.
func (m *MockClient) SetLayout(nodeType string, ports []api.Port) {
	m.Lock()
	defer m.Unlock()
	m.layouts[nodeType] = ports
}

// FailOn makes every request for op on name fail with err until ClearFailures.
// An empty name matches any entity.
func (m *MockClient) FailOn(op string, name string, err error) {
	m.Lock()
	defer m.Unlock()
	m.failures[op+"/"+name] = err
}

func (m *MockClient) ClearFailures() {
	m.Lock()
	defer m.Unlock()
	m.failures = make(map[string]error)
}

// AddProject registers a closed project named name and returns it.
func (m *MockClient) AddProject(name string) api.Project {
	m.Lock()
	defer m.Unlock()
	for _, project := range m.projects {
		if project.Name == name {
			return project
		}
	}
	project := api.Project{
		ProjectId: "project-" + strconv.Itoa(len(m.projects)+1),
		Name:      name,
		Status:    "closed",
		Path:      "/projects/" + name,
		Filename:  name + ".gns3",
	}
	m.projects = append(m.projects, project)
	return project
}

// AddNode places a node on the server without recording a call.
func (m *MockClient) AddNode(projectId string, name string, nodeType string) api.Node {
	m.Lock()
	defer m.Unlock()
	return m.addNode(projectId, name, nodeType)
}

// AddLink places a cable on the server without recording a call.
func (m *MockClient) AddLink(projectId string, endpoints ...api.LinkEndpoint) api.Link {
	m.Lock()
	defer m.Unlock()
	m.seq++
	link := api.Link{
		LinkId:    "link-" + strconv.Itoa(m.seq),
		ProjectId: projectId,
		Nodes:     endpoints,
	}
	m.links[projectId] = append(m.links[projectId], link)
	return link
}

func (m *MockClient) Calls() []Call {
	m.Lock()
	defer m.Unlock()
	calls := make([]Call, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func (m *MockClient) Count(op string) int {
	m.Lock()
	defer m.Unlock()
	count := 0
	for _, call := range m.calls {
		if call.Op == op {
			count++
		}
	}
	return count
}

func (m *MockClient) ResetCalls() {
	m.Lock()
	defer m.Unlock()
	m.calls = make([]Call, 0)
}

func (m *MockClient) record(op string, name string) error {
	m.calls = append(m.calls, Call{Op: op, Name: name})
	if err, ok := m.failures[op+"/"+name]; ok {
		return err
	}
	if err, ok := m.failures[op+"/"]; ok {
		return err
	}
	return nil
}

func (m *MockClient) hasProject(projectId string) bool {
	for _, project := range m.projects {
		if project.ProjectId == projectId {
			return true
		}
	}
	return false
}

func (m *MockClient) addNode(projectId string, name string, nodeType string) api.Node {
	m.seq++
	layout, ok := m.layouts[nodeType]
	if !ok {
		layout = switchPorts(1)
	}
	ports := make([]api.Port, len(layout))
	copy(ports, layout)
	node := api.Node{
		NodeId:    "node-" + strconv.Itoa(m.seq),
		Name:      name,
		NodeType:  nodeType,
		ComputeId: MockComputeId,
		ProjectId: projectId,
		Status:    "stopped",
		Ports:     ports,
	}
	m.nodes[projectId] = append(m.nodes[projectId], node)
	return node
}

func (m *MockClient) findNode(projectId string, nodeId string) (api.Node, bool) {
	for _, node := range m.nodes[projectId] {
		if node.NodeId == nodeId {
			return node, true
		}
	}
	return api.Node{}, false
}

func (m *MockClient) nodeName(projectId string, nodeId string) string {
	if node, ok := m.findNode(projectId, nodeId); ok {
		return node.Name
	}
	return nodeId
}

func (m *MockClient) CreateNode(ctx context.Context, projectId string, req addApi.CreateNodeRequest) (api.Node, error) {
	if err := ctx.Err(); err != nil {
		return api.Node{}, &TransportError{Op: "create_node", Err: err}
	}
	m.Lock()
	defer m.Unlock()
	if err := m.record("create_node", req.Name); err != nil {
		return api.Node{}, err
	}
	if !m.hasProject(projectId) {
		return api.Node{}, &StatusError{Op: "create_node", Status: http.StatusNotFound, Message: "project " + projectId + " doesn't exist"}
	}
	for _, node := range m.nodes[projectId] {
		if node.Name == req.Name {
			return api.Node{}, &StatusError{Op: "create_node", Status: http.StatusConflict, Message: "node " + req.Name + " already exists"}
		}
	}
	node := m.addNode(projectId, req.Name, req.NodeType)
	node.Symbol = req.Symbol
	node.ComputeId = req.ComputeId
	nodes := m.nodes[projectId]
	nodes[len(nodes)-1] = node
	return node, nil
}

func (m *MockClient) CreateLink(ctx context.Context, projectId string, req connectApi.CreateLinkRequest) (api.Link, error) {
	if err := ctx.Err(); err != nil {
		return api.Link{}, &TransportError{Op: "create_link", Err: err}
	}
	m.Lock()
	defer m.Unlock()

	name := ""
	for i, ep := range req.Nodes {
		if i > 0 {
			name += "<->"
		}
		name += m.nodeName(projectId, ep.NodeId)
	}
	if err := m.record("create_link", name); err != nil {
		return api.Link{}, err
	}
	if len(req.Nodes) != 2 {
		return api.Link{}, &StatusError{Op: "create_link", Status: http.StatusBadRequest, Message: "a link needs two endpoints"}
	}
	for _, ep := range req.Nodes {
		node, ok := m.findNode(projectId, ep.NodeId)
		if !ok {
			return api.Link{}, &StatusError{Op: "create_link", Status: http.StatusNotFound, Message: "node " + ep.NodeId + " doesn't exist"}
		}
		declared := false
		for _, port := range node.Ports {
			if port.AdapterNumber == ep.AdapterNumber && port.PortNumber == ep.PortNumber {
				declared = true
				break
			}
		}
		if !declared {
			return api.Link{}, &StatusError{Op: "create_link", Status: http.StatusBadRequest,
				Message: fmt.Sprintf("port %d/%d doesn't exist on %s", ep.AdapterNumber, ep.PortNumber, node.Name)}
		}
		for _, link := range m.links[projectId] {
			for _, used := range link.Nodes {
				if used == ep {
					return api.Link{}, &StatusError{Op: "create_link", Status: http.StatusConflict,
						Message: fmt.Sprintf("port %d/%d on %s is already used", ep.AdapterNumber, ep.PortNumber, node.Name)}
				}
			}
		}
	}

	m.seq++
	endpoints := make([]api.LinkEndpoint, len(req.Nodes))
	copy(endpoints, req.Nodes)
	link := api.Link{
		LinkId:    "link-" + strconv.Itoa(m.seq),
		ProjectId: projectId,
		Nodes:     endpoints,
	}
	m.links[projectId] = append(m.links[projectId], link)
	return link, nil
}

func (m *MockClient) ListNodes(ctx context.Context, projectId string) ([]api.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "list_nodes", Err: err}
	}
	m.Lock()
	defer m.Unlock()
	if err := m.record("list_nodes", ""); err != nil {
		return nil, err
	}
	if !m.hasProject(projectId) {
		return nil, &StatusError{Op: "list_nodes", Status: http.StatusNotFound, Message: "project " + projectId + " doesn't exist"}
	}
	nodes := make([]api.Node, len(m.nodes[projectId]))
	copy(nodes, m.nodes[projectId])
	return nodes, nil
}

func (m *MockClient) ListLinks(ctx context.Context, projectId string) ([]api.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "list_links", Err: err}
	}
	m.Lock()
	defer m.Unlock()
	if err := m.record("list_links", ""); err != nil {
		return nil, err
	}
	if !m.hasProject(projectId) {
		return nil, &StatusError{Op: "list_links", Status: http.StatusNotFound, Message: "project " + projectId + " doesn't exist"}
	}
	links := make([]api.Link, len(m.links[projectId]))
	copy(links, m.links[projectId])
	return links, nil
}

func (m *MockClient) ListProjects(ctx context.Context) ([]api.Project, error) {
	m.Lock()
	defer m.Unlock()
	if err := m.record("list_projects", ""); err != nil {
		return nil, err
	}
	projects := make([]api.Project, len(m.projects))
	copy(projects, m.projects)
	return projects, nil
}

func (m *MockClient) LoadProject(ctx context.Context, p string) (api.Project, error) {
	m.Lock()
	defer m.Unlock()
	if err := m.record("load_project", p); err != nil {
		return api.Project{}, err
	}
	for i, project := range m.projects {
		if path.Join(project.Path, project.Name+".gns3") == p {
			m.projects[i].Status = "opened"
			return m.projects[i], nil
		}
	}
	return api.Project{}, &StatusError{Op: "load_project", Status: http.StatusNotFound, Message: "project file " + p + " doesn't exist"}
}

func (m *MockClient) ListComputes(ctx context.Context) ([]api.Compute, error) {
	m.Lock()
	defer m.Unlock()
	if err := m.record("list_computes", ""); err != nil {
		return nil, err
	}
	computes := make([]api.Compute, len(m.computes))
	copy(computes, m.computes)
	return computes, nil
}

func (m *MockClient) Version(ctx context.Context) (api.Version, error) {
	m.Lock()
	defer m.Unlock()
	if err := m.record("version", ""); err != nil {
		return api.Version{}, err
	}
	return api.Version{Version: "2.2.0-mock", Local: true}, nil
}

// ListTemplates offers one builtin template per node type with a port layout.
func (m *MockClient) ListTemplates(ctx context.Context) ([]api.Template, error) {
	m.Lock()
	defer m.Unlock()
	if err := m.record("list_templates", ""); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(m.layouts))
	for nodeType := range m.layouts {
		names = append(names, nodeType)
	}
	sort.Strings(names)
	templates := make([]api.Template, 0, len(names))
	for _, nodeType := range names {
		templates = append(templates, api.Template{
			TemplateId:   "template-" + nodeType,
			Name:         nodeType,
			Category:     "guest",
			ComputeId:    MockComputeId,
			TemplateType: nodeType,
			Builtin:      true,
		})
	}
	return templates, nil
}
