package topology

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, node.Name())
	}
	return out
}

func TestCreateArea(t *testing.T) {
	topo := CreateTopology()
	area, err := topo.CreateArea("A")
	require.NoError(t, err)
	assert.Equal(t, "A-Central", area.Central().Name())
	assert.Equal(t, RoleCentral, area.Central().Role())
	assert.True(t, area.Central().IsCentral())

	_, err = topo.CreateArea("A")
	assert.True(t, errors.Is(err, ErrDuplicate))
	_, err = topo.CreateArea("")
	assert.True(t, errors.Is(err, ErrInvalidName))

	found, err := topo.Area("A")
	require.NoError(t, err)
	assert.Same(t, area, found)
	_, err = topo.Area("B")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCreateNodeLinksToCentral(t *testing.T) {
	topo := CreateTopology()
	area, err := topo.CreateArea("A")
	require.NoError(t, err)

	a1, err := area.CreateNode("A1")
	require.NoError(t, err)
	assert.Equal(t, "A-A1", a1.Name())
	assert.Same(t, area, a1.Area())
	assert.Equal(t, RoleStandard, a1.Role())
	assert.False(t, a1.IsCentral())

	assert.Equal(t, []string{"A-Central"}, names(area.GetNeighbors(a1)))
	assert.Equal(t, []string{"A-A1"}, names(area.GetNeighbors(area.Central())))
	require.Len(t, area.Links(), 1)
	assert.Equal(t, "A-A1-A-Central", area.Links()[0].ID())
	assert.True(t, area.Links()[0].Canonical())
}

func TestCreateNodeOptions(t *testing.T) {
	topo := CreateTopology()
	area, err := topo.CreateArea("A")
	require.NoError(t, err)

	gw, err := area.CreateNode("gw", WithRole("gateway"), Unlinked())
	require.NoError(t, err)
	assert.Equal(t, Role("gateway"), gw.Role())
	assert.Empty(t, area.GetNeighbors(gw))
	assert.Empty(t, area.Links())
}

func TestCreateNodeDuplicates(t *testing.T) {
	topo := CreateTopology()
	area, err := topo.CreateArea("A")
	require.NoError(t, err)
	_, err = area.CreateNode("A1")
	require.NoError(t, err)

	_, err = area.CreateNode("A1")
	assert.True(t, errors.Is(err, ErrDuplicate))
	_, err = area.CreateNode("Central")
	assert.True(t, errors.Is(err, ErrDuplicate))
	_, err = area.CreateNode("")
	assert.True(t, errors.Is(err, ErrInvalidName))
	assert.Len(t, area.Nodes(), 1)
}

func TestNodeLookup(t *testing.T) {
	topo := CreateTopology()
	area, err := topo.CreateArea("A")
	require.NoError(t, err)
	a1, err := area.CreateNode("A1")
	require.NoError(t, err)

	for _, name := range []string{"A1", "A-A1"} {
		found, err := area.Node(name)
		require.NoError(t, err, name)
		assert.Same(t, a1, found)
	}
	central, err := area.Node("Central")
	require.NoError(t, err)
	assert.Same(t, area.Central(), central)

	_, err = area.Node("A2")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAreaCreateLink(t *testing.T) {
	topo := CreateTopology()
	area, err := topo.CreateArea("A")
	require.NoError(t, err)
	x, err := area.CreateNode("x")
	require.NoError(t, err)
	y, err := area.CreateNode("y")
	require.NoError(t, err)

	link, err := area.CreateLink(x, y)
	require.NoError(t, err)
	assert.Same(t, x, link.From)
	assert.Same(t, y, link.To)

	_, err = area.CreateLink(y, x)
	assert.True(t, errors.Is(err, ErrDuplicate))
	_, err = area.CreateLink(x, x)
	assert.True(t, errors.Is(err, ErrSelfLink))

	other, err := topo.CreateArea("B")
	require.NoError(t, err)
	z, err := other.CreateNode("z")
	require.NoError(t, err)
	_, err = area.CreateLink(x, z)
	assert.True(t, errors.Is(err, ErrNotFound))

	// central first, then y, in insertion order
	assert.Equal(t, []string{"A-Central", "A-y"}, names(area.GetNeighbors(x)))
	assert.Equal(t, []string{"A-Central", "A-x"}, names(area.GetNeighbors(y)))
	assert.Len(t, area.Links(), 3)
}

func TestTopologyCreateLinkWithMedium(t *testing.T) {
	topo := CreateTopology()
	a, err := topo.CreateArea("A")
	require.NoError(t, err)
	b, err := topo.CreateArea("B")
	require.NoError(t, err)

	link, err := topo.CreateLink(a, b, Central, Central, true)
	require.NoError(t, err)
	require.NotNil(t, link.Medium)
	assert.Equal(t, "Medium-A-B", link.Medium.Name())
	assert.Equal(t, []*Area{a, b}, link.Medium.Areas())
	assert.Same(t, a.Central(), link.SourceNode)
	assert.Same(t, b.Central(), link.TargetNode)
	assert.True(t, link.Canonical())

	_, err = topo.CreateLink(b, a, Central, Central, true)
	assert.True(t, errors.Is(err, ErrDuplicate))
	_, err = topo.CreateLink(a, b, Central, Central, false)
	assert.True(t, errors.Is(err, ErrDuplicate))

	gw, err := a.CreateNode("gw")
	require.NoError(t, err)
	shared, err := topo.CreateLink(a, b, At(gw), Central, true)
	require.NoError(t, err)
	assert.Same(t, link.Medium, shared.Medium)
	assert.Len(t, topo.MediumNodes(), 1)
	assert.Len(t, topo.Links(), 2)
	assert.Len(t, topo.LinksFrom(a), 2)
	assert.Len(t, topo.LinksFrom(b), 2)
	for _, l := range topo.LinksFrom(b) {
		assert.False(t, l.Canonical())
	}
}

func TestTopologyCreateLinkErrors(t *testing.T) {
	topo := CreateTopology()
	a, err := topo.CreateArea("A")
	require.NoError(t, err)
	b, err := topo.CreateArea("B")
	require.NoError(t, err)
	b1, err := b.CreateNode("B1")
	require.NoError(t, err)

	_, err = topo.CreateLink(a, a, Central, Central, false)
	assert.True(t, errors.Is(err, ErrSelfLink))
	_, err = topo.CreateLink(a, b, At(b1), Central, false)
	assert.True(t, errors.Is(err, ErrNotFound))

	stranger := CreateTopology()
	c, err := stranger.CreateArea("C")
	require.NoError(t, err)
	_, err = topo.CreateLink(a, c, Central, Central, false)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, topo.Links())
}

func TestTopologyGetNeighbors(t *testing.T) {
	topo := CreateTopology()
	a, err := topo.CreateArea("A")
	require.NoError(t, err)
	b, err := topo.CreateArea("B")
	require.NoError(t, err)
	c, err := topo.CreateArea("C")
	require.NoError(t, err)
	b1, err := b.CreateNode("B1")
	require.NoError(t, err)

	_, err = topo.CreateLink(a, b, Central, At(b1), false)
	require.NoError(t, err)
	_, err = topo.CreateLink(c, a, Central, Central, true)
	require.NoError(t, err)

	neighbors := topo.GetNeighbors(a)
	assert.Len(t, neighbors, 2)
	assert.Equal(t, []*Node{b1}, neighbors[b])
	assert.Equal(t, []*Node{c.Central()}, neighbors[c])
	assert.Equal(t, []*Node{a.Central()}, topo.GetNeighbors(b)[a])
}

func TestRemoveNodeInUse(t *testing.T) {
	topo := CreateTopology()
	a, err := topo.CreateArea("A")
	require.NoError(t, err)
	b, err := topo.CreateArea("B")
	require.NoError(t, err)
	a1, err := a.CreateNode("A1")
	require.NoError(t, err)
	gw, err := a.CreateNode("gw", Unlinked())
	require.NoError(t, err)
	_, err = topo.CreateLink(a, b, At(gw), Central, false)
	require.NoError(t, err)

	assert.True(t, errors.Is(a.RemoveNode(a1), ErrInUse))
	assert.True(t, errors.Is(a.RemoveNode(gw), ErrInUse))
	assert.True(t, errors.Is(a.RemoveNode(a.Central()), ErrInUse))

	require.NoError(t, a.RemoveLink(a.Central(), a1))
	require.NoError(t, a.RemoveNode(a1))
	_, err = a.Node("A1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(a.RemoveNode(a1), ErrNotFound))

	require.NoError(t, topo.RemoveLink(a, b, At(gw), Central))
	require.NoError(t, a.RemoveNode(gw))
	assert.Empty(t, a.Nodes())
}

func TestRemoveLinkDropsUnusedMedium(t *testing.T) {
	topo := CreateTopology()
	a, err := topo.CreateArea("A")
	require.NoError(t, err)
	b, err := topo.CreateArea("B")
	require.NoError(t, err)
	gw, err := a.CreateNode("gw")
	require.NoError(t, err)

	_, err = topo.CreateLink(a, b, Central, Central, true)
	require.NoError(t, err)
	_, err = topo.CreateLink(a, b, At(gw), Central, true)
	require.NoError(t, err)

	// either direction names the same link
	require.NoError(t, topo.RemoveLink(b, a, Central, Central))
	assert.Len(t, topo.MediumNodes(), 1)
	assert.Len(t, topo.Links(), 1)

	require.NoError(t, topo.RemoveLink(a, b, At(gw), Central))
	assert.Empty(t, topo.MediumNodes())
	assert.Empty(t, topo.Links())
	assert.Empty(t, topo.LinksFrom(a))

	err = topo.RemoveLink(a, b, Central, Central)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAreaRemoveLink(t *testing.T) {
	topo := CreateTopology()
	a, err := topo.CreateArea("A")
	require.NoError(t, err)
	a1, err := a.CreateNode("A1")
	require.NoError(t, err)

	require.NoError(t, a.RemoveLink(a1, a.Central()))
	assert.Empty(t, a.Links())
	assert.Empty(t, a.GetNeighbors(a1))
	assert.True(t, errors.Is(a.RemoveLink(a1, a.Central()), ErrNotFound))

	_, err = a.CreateLink(a.Central(), a1)
	require.NoError(t, err)
}

func TestAreaLinksWithHyphenatedNames(t *testing.T) {
	topo := CreateTopology()
	area, err := topo.CreateArea("A")
	require.NoError(t, err)
	xA, err := area.CreateNode("x-A", Unlinked())
	require.NoError(t, err)
	y, err := area.CreateNode("y", Unlinked())
	require.NoError(t, err)
	x, err := area.CreateNode("x", Unlinked())
	require.NoError(t, err)
	Ay, err := area.CreateNode("A-y", Unlinked())
	require.NoError(t, err)

	first, err := area.CreateLink(xA, y)
	require.NoError(t, err)

	// both pairs render as A-x-A-A-y
	err = area.RemoveLink(x, Ay)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, []string{"A-y"}, names(area.GetNeighbors(xA)))
	assert.Len(t, area.Links(), 1)

	second, err := area.CreateLink(x, Ay)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, []string{"A-A-y"}, names(area.GetNeighbors(x)))
	assert.Len(t, area.Links(), 2)

	require.NoError(t, area.RemoveLink(Ay, x))
	assert.Equal(t, []string{"A-y"}, names(area.GetNeighbors(xA)))
	assert.Empty(t, area.GetNeighbors(x))
}

func TestDeviceNamesUniqueAcrossTopology(t *testing.T) {
	topo := CreateTopology()
	a, err := topo.CreateArea("A")
	require.NoError(t, err)
	_, err = a.CreateNode("B-x")
	require.NoError(t, err)

	ab, err := topo.CreateArea("A-B")
	require.NoError(t, err)
	_, err = ab.CreateNode("x")
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.Empty(t, ab.Nodes())

	// a member named like another area's central node
	_, err = a.CreateNode("C-Central")
	require.NoError(t, err)
	_, err = topo.CreateArea("A-C")
	assert.True(t, errors.Is(err, ErrDuplicate))
	_, err = topo.Area("A-C")
	assert.True(t, errors.Is(err, ErrNotFound))

	// and the other way round
	_, err = a.CreateNode("B-Central")
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestMediumNameClash(t *testing.T) {
	topo := CreateTopology()
	a, err := topo.CreateArea("A")
	require.NoError(t, err)
	b, err := topo.CreateArea("B")
	require.NoError(t, err)
	m, err := topo.CreateArea("Medium")
	require.NoError(t, err)
	impostor, err := m.CreateNode("A-B")
	require.NoError(t, err)

	_, err = topo.CreateLink(a, b, Central, Central, true)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.Empty(t, topo.MediumNodes())
	assert.Empty(t, topo.Links())

	// the name frees up with the node
	require.NoError(t, m.RemoveLink(impostor, m.Central()))
	require.NoError(t, m.RemoveNode(impostor))
	_, err = topo.CreateLink(a, b, Central, Central, true)
	require.NoError(t, err)
	require.Len(t, topo.MediumNodes(), 1)

	_, err = m.CreateNode("A-B")
	assert.True(t, errors.Is(err, ErrDuplicate))

	// and with the medium
	require.NoError(t, topo.RemoveLink(a, b, Central, Central))
	_, err = m.CreateNode("A-B")
	require.NoError(t, err)
}

func TestConcurrentConstruction(t *testing.T) {
	topo := CreateTopology()
	area, err := topo.CreateArea("A")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := area.CreateNode("n" + strconv.Itoa(i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, area.Nodes(), 50)
	assert.Len(t, area.Links(), 50)
	assert.Len(t, area.GetNeighbors(area.Central()), 50)
}

func TestDescribe(t *testing.T) {
	topo := CreateTopology()
	a, err := topo.CreateArea("A")
	require.NoError(t, err)
	b, err := topo.CreateArea("B")
	require.NoError(t, err)
	_, err = a.CreateNode("A1")
	require.NoError(t, err)
	b1, err := b.CreateNode("B1")
	require.NoError(t, err)
	_, err = topo.CreateLink(a, b, Central, Central, true)
	require.NoError(t, err)
	_, err = topo.CreateLink(a, b, Central, At(b1), false)
	require.NoError(t, err)

	desc := topo.Describe()
	assert.Equal(t, map[string][]string{"A-A1": {"A-Central"}}, desc.Areas["A"])
	assert.Equal(t, map[string][]string{
		"A-Central":  {"Medium-A-B", "B-B1"},
		"Medium-A-B": {"B-Central"},
	}, desc.AreaLinks["A"])
	assert.NotContains(t, desc.AreaLinks, "B")
}
