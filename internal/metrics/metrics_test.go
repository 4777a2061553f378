package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.NotNil(t, r.ProvisionRequestsTotal)
	assert.NotNil(t, r.DeployedNodesTotal)
	assert.NotNil(t, r.PortAllocationsTotal)
	assert.NotNil(t, r.Handler())
}

func TestRecordRequest(t *testing.T) {
	r := NewRegistry()
	r.RecordRequest("create_node", "ok", 10*time.Millisecond)
	r.RecordRequest("create_node", "ok", 20*time.Millisecond)
	r.RecordRequest("create_node", "error", 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ProvisionRequestsTotal.WithLabelValues("create_node", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ProvisionRequestsTotal.WithLabelValues("create_node", "error")))
}

func TestDeployCounters(t *testing.T) {
	r := NewRegistry()
	r.RecordNode("standard", "created")
	r.RecordLink("intra", "skipped")
	r.RecordFailure("links")
	r.RecordPortAllocation("exhausted")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.DeployedNodesTotal.WithLabelValues("standard", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DeployedLinksTotal.WithLabelValues("intra", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DeployFailuresTotal.WithLabelValues("links")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PortAllocationsTotal.WithLabelValues("exhausted")))
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.RecordRequest("list_nodes", "ok", time.Millisecond)
		r.RecordRetry("list_nodes")
		r.RecordNode("central", "created")
		r.RecordLink("inter", "created")
		r.RecordFailure("nodes")
		r.RecordDeploy(time.Second)
		r.RecordPortAllocation("found")
	})
}
