package ports

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/David-Antunes/gone-topo/api"
	"github.com/David-Antunes/gone-topo/internal/metrics"
	"github.com/David-Antunes/gone-topo/internal/provision"
)

// ErrNoFreePort means every declared port of the device is cabled. It is an
// expected outcome, not a failure of the allocator.
var ErrNoFreePort = fmt.Errorf("no free port: %w", provision.ErrNotFound)

type portKey struct {
	adapter int
	port    int
}

// Allocator picks free ports on devices of one project. It keeps no port
// state of its own: every lookup reads the project's links again.
type Allocator struct {
	client    provision.Provisioner
	projectId string
	metrics   *metrics.Registry

	mu      sync.Mutex
	devices map[string]*sync.Mutex
}

func NewAllocator(client provision.Provisioner, projectId string, registry *metrics.Registry) *Allocator {
	return &Allocator{
		client:    client,
		projectId: projectId,
		metrics:   registry,
		devices:   make(map[string]*sync.Mutex),
	}
}

func (a *Allocator) device(id string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.devices[id]
	if !ok {
		m = &sync.Mutex{}
		a.devices[id] = m
	}
	return m
}

// Lock enters the critical section of every given device. Hold it from the
// free port lookup until the link using that port exists, then call the
// returned function.
func (a *Allocator) Lock(nodeIds ...string) func() {
	ids := make([]string, 0, len(nodeIds))
	seen := make(map[string]bool, len(nodeIds))
	for _, id := range nodeIds {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	locks := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		m := a.device(id)
		m.Lock()
		locks = append(locks, m)
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// FindFreePort returns the first declared port of device, ordered by
// (adapter, port), that no link of the project uses.
func (a *Allocator) FindFreePort(ctx context.Context, device api.Node) (api.Port, error) {
	declared := make([]api.Port, len(device.Ports))
	copy(declared, device.Ports)
	sort.SliceStable(declared, func(i, j int) bool {
		if declared[i].AdapterNumber != declared[j].AdapterNumber {
			return declared[i].AdapterNumber < declared[j].AdapterNumber
		}
		return declared[i].PortNumber < declared[j].PortNumber
	})

	links, err := a.client.ListLinks(ctx, a.projectId)
	if err != nil {
		return api.Port{}, err
	}

	used := make(map[portKey]bool)
	for _, link := range links {
		for _, ep := range link.Nodes {
			if ep.NodeId == device.NodeId {
				used[portKey{ep.AdapterNumber, ep.PortNumber}] = true
			}
		}
	}

	for _, port := range declared {
		if !used[portKey{port.AdapterNumber, port.PortNumber}] {
			a.metrics.RecordPortAllocation("found")
			return port, nil
		}
	}
	a.metrics.RecordPortAllocation("exhausted")
	return api.Port{}, fmt.Errorf("node %s: %w", device.Name, ErrNoFreePort)
}
