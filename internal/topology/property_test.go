package topology

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestTopologyInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("every node is cabled to its central node once", prop.ForAll(
		func(raw []string) bool {
			topo := CreateTopology()
			area, err := topo.CreateArea("A")
			if err != nil {
				return false
			}
			seen := make(map[string]bool)
			for _, name := range raw {
				_, err := area.CreateNode(name)
				if seen[name] != errors.Is(err, ErrDuplicate) {
					return false
				}
				seen[name] = true
			}
			for _, node := range area.Nodes() {
				neighbors := area.GetNeighbors(node)
				if len(neighbors) != 1 || neighbors[0] != area.Central() {
					return false
				}
			}
			return len(area.Links()) == len(seen) &&
				len(area.GetNeighbors(area.Central())) == len(seen)
		},
		gen.SliceOf(gen.Identifier()),
	))

	const size = 6
	properties.Property("a cable between two nodes exists at most once", prop.ForAll(
		func(pairs []int) bool {
			topo := CreateTopology()
			area, err := topo.CreateArea("A")
			if err != nil {
				return false
			}
			nodes := make([]*Node, size)
			for i := range nodes {
				if nodes[i], err = area.CreateNode(string(rune('a'+i)), Unlinked()); err != nil {
					return false
				}
			}

			cabled := make(map[[2]int]bool)
			for _, p := range pairs {
				i, j := p/size, p%size
				key := [2]int{min(i, j), max(i, j)}
				_, err := area.CreateLink(nodes[i], nodes[j])
				switch {
				case i == j:
					if !errors.Is(err, ErrSelfLink) {
						return false
					}
				case cabled[key]:
					if !errors.Is(err, ErrDuplicate) {
						return false
					}
				default:
					if err != nil {
						return false
					}
					cabled[key] = true
				}
			}
			if len(area.Links()) != len(cabled) {
				return false
			}
			// neighbors are symmetric
			for _, a := range nodes {
				for _, b := range area.GetNeighbors(a) {
					found := false
					for _, c := range area.GetNeighbors(b) {
						found = found || c == a
					}
					if !found {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, size*size-1)),
	))

	properties.Property("a medium node lives as long as a link uses it", prop.ForAll(
		func(count int) bool {
			topo := CreateTopology()
			a, _ := topo.CreateArea("A")
			b, _ := topo.CreateArea("B")
			endpoints := make([]Endpoint, 0, count)
			for i := 0; i < count; i++ {
				node, err := a.CreateNode(string(rune('a' + i)))
				if err != nil {
					return false
				}
				if _, err := topo.CreateLink(a, b, At(node), Central, true); err != nil {
					return false
				}
				endpoints = append(endpoints, At(node))
			}
			if len(topo.MediumNodes()) != 1 {
				return false
			}
			for i, ep := range endpoints {
				if err := topo.RemoveLink(a, b, ep, Central); err != nil {
					return false
				}
				remaining := len(topo.MediumNodes())
				if (i < count-1) != (remaining == 1) {
					return false
				}
			}
			return len(topo.Links()) == 0
		},
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}
