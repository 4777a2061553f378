package graphDB

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/David-Antunes/gone-topo/api"
	"github.com/David-Antunes/gone-topo/internal/deploy"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var graphLog = log.New(os.Stderr, "GRAPHDB INFO: ", log.Ltime)

var ErrNoPath = errors.New("no path")

// Mirror keeps a graph copy of what deployments put on the emulation server:
// one Device per node and one CABLE relationship per link.
type Mirror struct {
	sync.Mutex
	uri      string
	database string
	conn     neo4j.DriverWithContext
}

var _ deploy.Recorder = (*Mirror)(nil)

// NewMirror connects to uri, e.g. "neo4j://localhost". An empty user connects
// without authentication.
func NewMirror(ctx context.Context, uri string, user string, password string) (*Mirror, error) {
	auth := neo4j.NoAuth()
	if user != "" {
		auth = neo4j.BasicAuth(user, password, "")
	}
	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}

	m := &Mirror{
		uri:      uri,
		database: "neo4j",
		conn:     driver,
	}
	if err := m.prepare(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	graphLog.Println("connected to", uri)
	return m, nil
}

func (m *Mirror) Close(ctx context.Context) error {
	return m.conn.Close(ctx)
}

func (m *Mirror) query(ctx context.Context, query string, args map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(ctx, m.conn, query,
		args, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(m.database))
}

func (m *Mirror) prepare(ctx context.Context) error {
	_, err := m.query(ctx,
		`CREATE CONSTRAINT uniq_device_name IF NOT EXISTS
		FOR (n:Device)
		REQUIRE n.name IS UNIQUE
		`,
		map[string]any{})
	return err
}

// Reset drops every device and cable.
func (m *Mirror) Reset(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()
	_, err := m.query(ctx, `MATCH (n:Device) DETACH DELETE n`, map[string]any{})
	return err
}

func (m *Mirror) RecordNode(ctx context.Context, runId string, role string, node api.Node) error {
	m.Lock()
	defer m.Unlock()
	_, err := m.query(ctx,
		`MERGE (n:Device {name: $name})
		SET n.id = $id, n.role = $role, n.type = $type, n.run = $run`,
		map[string]any{
			"name": node.Name,
			"id":   node.NodeId,
			"role": role,
			"type": node.NodeType,
			"run":  runId,
		})
	return err
}

func (m *Mirror) RecordLink(ctx context.Context, runId string, a api.Node, b api.Node, link api.Link) error {
	portA, portB := "", ""
	for _, ep := range link.Nodes {
		switch ep.NodeId {
		case a.NodeId:
			portA = fmt.Sprintf("%d/%d", ep.AdapterNumber, ep.PortNumber)
		case b.NodeId:
			portB = fmt.Sprintf("%d/%d", ep.AdapterNumber, ep.PortNumber)
		}
	}

	m.Lock()
	defer m.Unlock()
	_, err := m.query(ctx,
		`MATCH (a:Device {name: $from})
		MATCH (b:Device {name: $to})
		MERGE (a)-[c:CABLE {id: $id}]->(b)
		SET c.from_port = $fromPort, c.to_port = $toPort, c.run = $run`,
		map[string]any{
			"from":     a.Name,
			"to":       b.Name,
			"id":       link.LinkId,
			"fromPort": portA,
			"toPort":   portB,
			"run":      runId,
		})
	return err
}

// Path returns the device names on the shortest cable path between two devices.
func (m *Mirror) Path(ctx context.Context, from string, to string) ([]string, error) {
	if from == to {
		return []string{from}, nil
	}
	result, err := m.query(ctx,
		`MATCH (from:Device {name: $from}), (to:Device {name: $to}),
		p = shortestPath((from)-[:CABLE*]-(to))
		RETURN [n in nodes(p) | n.name] AS shortestPath`,
		map[string]any{
			"from": from,
			"to":   to,
		})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("%s to %s: %w", from, to, ErrNoPath)
	}
	raw, _ := result.Records[0].Get("shortestPath")
	return toNames(raw)
}

func toNames(raw any) ([]string, error) {
	values, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected path value %T", raw)
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected device name %T", v)
		}
		names = append(names, name)
	}
	return names, nil
}
