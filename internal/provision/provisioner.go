package provision

import (
	"context"

	"github.com/David-Antunes/gone-topo/api"
	addApi "github.com/David-Antunes/gone-topo/api/Add"
	connectApi "github.com/David-Antunes/gone-topo/api/Connect"
)

// Provisioner creates and lists devices and cables on the emulation server.
// Every call is one blocking round trip.
type Provisioner interface {
	CreateNode(ctx context.Context, projectId string, req addApi.CreateNodeRequest) (api.Node, error)
	CreateLink(ctx context.Context, projectId string, req connectApi.CreateLinkRequest) (api.Link, error)
	ListNodes(ctx context.Context, projectId string) ([]api.Node, error)
	ListLinks(ctx context.Context, projectId string) ([]api.Link, error)
	ListProjects(ctx context.Context) ([]api.Project, error)
	LoadProject(ctx context.Context, path string) (api.Project, error)
	ListComputes(ctx context.Context) ([]api.Compute, error)
}

// Inspector reads what the server offers, independent of any project.
type Inspector interface {
	Version(ctx context.Context) (api.Version, error)
	ListTemplates(ctx context.Context) ([]api.Template, error)
}

var (
	_ Inspector = (*Client)(nil)
	_ Inspector = (*MockClient)(nil)
)
