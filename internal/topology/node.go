package topology

type Role string

const (
	RoleStandard Role = "standard"
	RoleCentral  Role = "central"
)

const centralName = "Central"

// Node is a device placeholder inside an Area. It holds no remote state.
type Node struct {
	name string
	area *Area
	role Role
}

func (node *Node) ID() string {
	return node.name
}

// Name returns the qualified name, <area>-<node>.
func (node *Node) Name() string {
	return node.name
}

func (node *Node) Area() *Area {
	return node.area
}

func (node *Node) Role() Role {
	return node.role
}

func (node *Node) IsCentral() bool {
	return node.area != nil && node.area.central == node
}

func (node *Node) String() string {
	return node.name
}

type nodeConfig struct {
	role          Role
	linkToCentral bool
}

// NodeOption tunes Area.CreateNode.
type NodeOption func(*nodeConfig)

func WithRole(role Role) NodeOption {
	return func(c *nodeConfig) {
		c.role = role
	}
}

// Unlinked skips the automatic link between the new node and the area's central node.
func Unlinked() NodeOption {
	return func(c *nodeConfig) {
		c.linkToCentral = false
	}
}
