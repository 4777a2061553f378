package provision

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/David-Antunes/gone-topo/api"
)

// OpenProject resolves a human readable project name and loads it. An exact
// name match wins over a project whose name merely contains name.
func OpenProject(ctx context.Context, p Provisioner, name string) (api.Project, error) {
	projects, err := p.ListProjects(ctx)
	if err != nil {
		return api.Project{}, err
	}

	var found *api.Project
	for i := range projects {
		if projects[i].Name == name {
			found = &projects[i]
			break
		}
		if found == nil && strings.Contains(projects[i].Name, name) {
			found = &projects[i]
		}
	}
	if found == nil {
		return api.Project{}, fmt.Errorf("project %s: %w", name, ErrNotFound)
	}

	project, err := p.LoadProject(ctx, path.Join(found.Path, found.Name+".gns3"))
	if err != nil {
		return api.Project{}, err
	}
	provisionLog.Println("loaded project", project.Name, project.ProjectId)
	return project, nil
}

// SelectCompute returns the compute with the given id, or the first one the
// server knows about when id is empty.
func SelectCompute(ctx context.Context, p Provisioner, id string) (api.Compute, error) {
	computes, err := p.ListComputes(ctx)
	if err != nil {
		return api.Compute{}, err
	}
	for _, compute := range computes {
		if id == "" || compute.ComputeId == id {
			return compute, nil
		}
	}
	if id == "" {
		return api.Compute{}, fmt.Errorf("compute: %w", ErrNotFound)
	}
	return api.Compute{}, fmt.Errorf("compute %s: %w", id, ErrNotFound)
}

// NodeByName scans every node of the project for name.
func NodeByName(ctx context.Context, p Provisioner, projectId string, name string) (api.Node, error) {
	nodes, err := p.ListNodes(ctx, projectId)
	if err != nil {
		return api.Node{}, err
	}
	for _, node := range nodes {
		if node.Name == name {
			return node, nil
		}
	}
	return api.Node{}, fmt.Errorf("node %s: %w", name, ErrNotFound)
}
