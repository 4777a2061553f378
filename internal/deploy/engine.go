package deploy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/David-Antunes/gone-topo/api"
	addApi "github.com/David-Antunes/gone-topo/api/Add"
	connectApi "github.com/David-Antunes/gone-topo/api/Connect"
	"github.com/David-Antunes/gone-topo/internal/metrics"
	"github.com/David-Antunes/gone-topo/internal/ports"
	"github.com/David-Antunes/gone-topo/internal/provision"
	"github.com/David-Antunes/gone-topo/internal/topology"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var deployLog = log.New(os.Stderr, "DEPLOY INFO: ", log.Ltime)

// Recorder is told about every node and link a deployment resolves, created
// or not.
type Recorder interface {
	RecordNode(ctx context.Context, runId string, role string, node api.Node) error
	RecordLink(ctx context.Context, runId string, a api.Node, b api.Node, link api.Link) error
}

type Options struct {
	ProjectId   string
	ComputeId   string
	Concurrency int
	Templates   Templates
	Metrics     *metrics.Registry
	Recorder    Recorder
}

// Engine turns a topology into nodes and links of one project.
type Engine struct {
	client      provision.Provisioner
	allocator   *ports.Allocator
	projectId   string
	computeId   string
	concurrency int
	templates   Templates
	metrics     *metrics.Registry
	recorder    Recorder
}

func NewEngine(client provision.Provisioner, opts Options) *Engine {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Engine{
		client:      client,
		allocator:   ports.NewAllocator(client, opts.ProjectId, opts.Metrics),
		projectId:   opts.ProjectId,
		computeId:   opts.ComputeId,
		concurrency: opts.Concurrency,
		templates:   opts.Templates.withDefaults(),
		metrics:     opts.Metrics,
		recorder:    opts.Recorder,
	}
}

func (e *Engine) Allocator() *ports.Allocator {
	return e.allocator
}

// Deploy creates every node and link of topo, phase after phase. Entities that
// already exist under their qualified name are reused, so a failed deployment
// can be run again. On failure the partial report comes back with a
// *DeployError; nothing created so far is removed.
func (e *Engine) Deploy(ctx context.Context, topo *topology.GlobalTopology) (*Report, error) {
	report := &Report{
		RunId:   uuid.NewString(),
		Started: time.Now(),
		Effects: make([]Effect, 0),
	}
	defer func() {
		report.Duration = time.Since(report.Started)
		e.metrics.RecordDeploy(report.Duration)
	}()

	deployLog.Println("starting run", report.RunId, "on project", e.projectId)
	p, err := e.newPass(ctx, report)
	if err != nil {
		e.metrics.RecordFailure(string(PhaseIndex))
		return report, &DeployError{Phase: PhaseIndex, Entity: e.projectId, Err: err}
	}

	phases := []struct {
		phase Phase
		steps []step
	}{
		{PhaseNodes, p.memberSteps(topo)},
		{PhaseCentrals, p.centralSteps(topo)},
		{PhaseMediums, p.mediumSteps(topo)},
		{PhaseAreaLinks, p.areaLinkSteps(topo)},
		{PhaseTopologyLinks, p.topologyLinkSteps(topo)},
	}
	for _, ph := range phases {
		if err := p.run(ctx, ph.phase, ph.steps); err != nil {
			deployLog.Println("run", report.RunId, "halted:", err)
			return report, err
		}
	}
	deployLog.Println("run", report.RunId, "done:",
		report.Created(KindNode), "nodes and", report.Created(KindLink), "links created,",
		report.Skipped(), "skipped")
	return report, nil
}

// Connect cables two nodes of the project by name. A nil port is picked by
// the allocator.
func (e *Engine) Connect(ctx context.Context, a string, b string, portA *api.Port, portB *api.Port) (api.Link, error) {
	nodeA, err := provision.NodeByName(ctx, e.client, e.projectId, a)
	if err != nil {
		return api.Link{}, err
	}
	nodeB, err := provision.NodeByName(ctx, e.client, e.projectId, b)
	if err != nil {
		return api.Link{}, err
	}
	unlock := e.allocator.Lock(nodeA.NodeId, nodeB.NodeId)
	defer unlock()
	return e.connect(ctx, nodeA, nodeB, portA, portB)
}

// connect must run inside the allocator lock of both nodes.
func (e *Engine) connect(ctx context.Context, a api.Node, b api.Node, portA *api.Port, portB *api.Port) (api.Link, error) {
	epA, err := e.endpoint(ctx, a, portA)
	if err != nil {
		return api.Link{}, err
	}
	epB, err := e.endpoint(ctx, b, portB)
	if err != nil {
		return api.Link{}, err
	}
	return e.client.CreateLink(ctx, e.projectId, connectApi.CreateLinkRequest{
		Nodes: []api.LinkEndpoint{epA, epB},
	})
}

func (e *Engine) endpoint(ctx context.Context, node api.Node, port *api.Port) (api.LinkEndpoint, error) {
	if port == nil {
		free, err := e.allocator.FindFreePort(ctx, node)
		if err != nil {
			return api.LinkEndpoint{}, err
		}
		port = &free
	}
	return api.LinkEndpoint{
		NodeId:        node.NodeId,
		AdapterNumber: port.AdapterNumber,
		PortNumber:    port.PortNumber,
	}, nil
}

type step struct {
	entity string
	run    func(ctx context.Context) ([]Effect, error)
}

// run executes the steps of one phase. Effects keep step order whatever the
// concurrency.
func (p *pass) run(ctx context.Context, phase Phase, steps []step) error {
	results := make([][]Effect, len(steps))
	var err error

	if p.engine.concurrency <= 1 {
		for i, s := range steps {
			var effects []Effect
			effects, err = s.run(ctx)
			results[i] = effects
			if err != nil {
				err = &DeployError{Phase: phase, Entity: s.entity, Err: err}
				break
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.engine.concurrency)
		for i, s := range steps {
			i, s := i, s
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return &DeployError{Phase: phase, Entity: s.entity, Err: err}
				}
				effects, err := s.run(gctx)
				results[i] = effects
				if err != nil {
					return &DeployError{Phase: phase, Entity: s.entity, Err: err}
				}
				return nil
			})
		}
		err = g.Wait()
	}

	for _, effects := range results {
		p.report.Effects = append(p.report.Effects, effects...)
	}
	if err != nil {
		p.engine.metrics.RecordFailure(string(phase))
	}
	return err
}

func (p *pass) ensureNode(ctx context.Context, phase Phase, name string, role string, tmpl Template) ([]Effect, error) {
	e := p.engine
	if node, ok := p.lookup(name); ok {
		deployLog.Println("node", name, "exists as", node.NodeId)
		e.metrics.RecordNode(role, "skipped")
		p.recordNode(ctx, role, node)
		return []Effect{{Phase: phase, Kind: KindNode, Name: name, RemoteId: node.NodeId, Skipped: true}}, nil
	}

	skipped := false
	node, err := e.client.CreateNode(ctx, e.projectId, addApi.CreateNodeRequest{
		Name:      name,
		NodeType:  tmpl.NodeType,
		ComputeId: e.computeId,
		Symbol:    tmpl.Symbol,
	})
	if errors.Is(err, provision.ErrConflict) {
		skipped = true
		node, err = provision.NodeByName(ctx, e.client, e.projectId, name)
	}
	if err != nil {
		e.metrics.RecordNode(role, "failed")
		return nil, err
	}

	p.remember(node)
	if skipped {
		deployLog.Println("node", name, "already exists as", node.NodeId)
		e.metrics.RecordNode(role, "skipped")
	} else {
		deployLog.Println("created", role, "node", name, node.NodeId)
		e.metrics.RecordNode(role, "created")
	}
	p.recordNode(ctx, role, node)
	return []Effect{{Phase: phase, Kind: KindNode, Name: name, RemoteId: node.NodeId, Skipped: skipped}}, nil
}

func (p *pass) ensureLink(ctx context.Context, phase Phase, kind string, a string, b string) (Effect, error) {
	e := p.engine
	name := a + "<->" + b
	nodeA, ok := p.lookup(a)
	if !ok {
		return Effect{}, fmt.Errorf("node %s: %w", a, provision.ErrNotFound)
	}
	nodeB, ok := p.lookup(b)
	if !ok {
		return Effect{}, fmt.Errorf("node %s: %w", b, provision.ErrNotFound)
	}

	if p.claim(nodeA.NodeId, nodeB.NodeId) {
		deployLog.Println("link", name, "exists")
		e.metrics.RecordLink(kind, "skipped")
		return Effect{Phase: phase, Kind: KindLink, Name: name, Skipped: true}, nil
	}

	unlock := e.allocator.Lock(nodeA.NodeId, nodeB.NodeId)
	link, err := e.connect(ctx, nodeA, nodeB, nil, nil)
	unlock()
	if err != nil {
		e.metrics.RecordLink(kind, "failed")
		return Effect{}, err
	}

	deployLog.Println("created link", name, link.LinkId)
	e.metrics.RecordLink(kind, "created")
	if e.recorder != nil {
		if err := e.recorder.RecordLink(ctx, p.report.RunId, nodeA, nodeB, link); err != nil {
			deployLog.Println("recording link", name, "failed:", err)
		}
	}
	return Effect{Phase: phase, Kind: KindLink, Name: name, RemoteId: link.LinkId}, nil
}

func (p *pass) recordNode(ctx context.Context, role string, node api.Node) {
	if p.engine.recorder == nil {
		return
	}
	if err := p.engine.recorder.RecordNode(ctx, p.report.RunId, role, node); err != nil {
		deployLog.Println("recording node", node.Name, "failed:", err)
	}
}
