package deploy

import (
	"context"
	"sync"

	"github.com/David-Antunes/gone-topo/api"
	"github.com/David-Antunes/gone-topo/internal/topology"
)

const roleMedium = "medium"

// pass is the state of one deployment run. The index assumes nobody else
// changes the project while the run is going.
type pass struct {
	sync.Mutex
	engine *Engine
	report *Report
	index  map[string]api.Node
	// cables already on the server and cables this run has spoken for, per
	// unordered pair of node ids
	existing map[string]int
	claimed  map[string]int
}

func (e *Engine) newPass(ctx context.Context, report *Report) (*pass, error) {
	nodes, err := e.client.ListNodes(ctx, e.projectId)
	if err != nil {
		return nil, err
	}
	links, err := e.client.ListLinks(ctx, e.projectId)
	if err != nil {
		return nil, err
	}

	p := &pass{
		engine:   e,
		report:   report,
		index:    make(map[string]api.Node, len(nodes)),
		existing: make(map[string]int),
		claimed:  make(map[string]int),
	}
	for _, node := range nodes {
		p.index[node.Name] = node
	}
	for _, link := range links {
		if len(link.Nodes) == 2 {
			p.existing[pairKey(link.Nodes[0].NodeId, link.Nodes[1].NodeId)]++
		}
	}
	return p, nil
}

func pairKey(a string, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func (p *pass) lookup(name string) (api.Node, bool) {
	p.Lock()
	defer p.Unlock()
	node, ok := p.index[name]
	return node, ok
}

func (p *pass) remember(node api.Node) {
	p.Lock()
	defer p.Unlock()
	p.index[node.Name] = node
}

// claim reserves one cable between a and b for the caller and reports whether
// the server already has it.
func (p *pass) claim(a string, b string) bool {
	p.Lock()
	defer p.Unlock()
	key := pairKey(a, b)
	p.claimed[key]++
	return p.claimed[key] <= p.existing[key]
}

func (p *pass) nodeStep(phase Phase, name string, role string, tmpl Template) step {
	return step{
		entity: name,
		run: func(ctx context.Context) ([]Effect, error) {
			return p.ensureNode(ctx, phase, name, role, tmpl)
		},
	}
}

func (p *pass) memberSteps(topo *topology.GlobalTopology) []step {
	steps := make([]step, 0)
	for _, area := range topo.Areas() {
		for _, node := range area.Nodes() {
			steps = append(steps, p.nodeStep(PhaseNodes, node.Name(), string(node.Role()), p.engine.templates.forRole(node.Role())))
		}
	}
	return steps
}

func (p *pass) centralSteps(topo *topology.GlobalTopology) []step {
	steps := make([]step, 0)
	for _, area := range topo.Areas() {
		central := area.Central()
		steps = append(steps, p.nodeStep(PhaseCentrals, central.Name(), string(topology.RoleCentral), p.engine.templates.Central))
	}
	return steps
}

func (p *pass) mediumSteps(topo *topology.GlobalTopology) []step {
	steps := make([]step, 0)
	for _, medium := range topo.MediumNodes() {
		steps = append(steps, p.nodeStep(PhaseMediums, medium.Name(), roleMedium, p.engine.templates.Medium))
	}
	return steps
}

func (p *pass) linkStep(phase Phase, kind string, hops ...string) step {
	entity := hops[0]
	for _, hop := range hops[1:] {
		entity += "->" + hop
	}
	return step{
		entity: entity,
		run: func(ctx context.Context) ([]Effect, error) {
			effects := make([]Effect, 0, len(hops)-1)
			for i := 0; i+1 < len(hops); i++ {
				effect, err := p.ensureLink(ctx, phase, kind, hops[i], hops[i+1])
				if err != nil {
					return effects, err
				}
				effects = append(effects, effect)
			}
			return effects, nil
		},
	}
}

func (p *pass) areaLinkSteps(topo *topology.GlobalTopology) []step {
	steps := make([]step, 0)
	for _, area := range topo.Areas() {
		for _, link := range area.Links() {
			steps = append(steps, p.linkStep(PhaseAreaLinks, "area", link.From.Name(), link.To.Name()))
		}
	}
	return steps
}

func (p *pass) topologyLinkSteps(topo *topology.GlobalTopology) []step {
	steps := make([]step, 0)
	for _, link := range topo.Links() {
		if link.Medium != nil {
			steps = append(steps, p.linkStep(PhaseTopologyLinks, "topology", link.SourceNode.Name(), link.Medium.Name(), link.TargetNode.Name()))
		} else {
			steps = append(steps, p.linkStep(PhaseTopologyLinks, "topology", link.SourceNode.Name(), link.TargetNode.Name()))
		}
	}
	return steps
}
