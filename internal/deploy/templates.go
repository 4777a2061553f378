package deploy

import "github.com/David-Antunes/gone-topo/internal/topology"

// Template is what the emulation server instantiates for a node.
type Template struct {
	NodeType string
	Symbol   string
}

// Templates maps node roles to templates.
type Templates struct {
	Standard Template
	Central  Template
	Medium   Template
}

func DefaultTemplates() Templates {
	return Templates{
		Standard: Template{NodeType: "vpcs", Symbol: ":/symbols/vpcs_guest.svg"},
		Central:  Template{NodeType: "ethernet_switch", Symbol: ":/symbols/ethernet_switch.svg"},
		Medium:   Template{NodeType: "ethernet_switch", Symbol: ":/symbols/classic/router.svg"},
	}
}

func (t Templates) forRole(role topology.Role) Template {
	if role == topology.RoleCentral {
		return t.Central
	}
	return t.Standard
}

func (t Templates) withDefaults() Templates {
	defaults := DefaultTemplates()
	if t.Standard.NodeType == "" {
		t.Standard = defaults.Standard
	}
	if t.Central.NodeType == "" {
		t.Central = defaults.Central
	}
	if t.Medium.NodeType == "" {
		t.Medium = defaults.Medium
	}
	return t
}
