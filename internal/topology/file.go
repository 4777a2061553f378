package topology

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// File is the on-disk description of a topology.
type File struct {
	Areas []AreaFile `yaml:"areas" validate:"required,min=1,dive"`
	Links []LinkFile `yaml:"links" validate:"dive"`
}

type AreaFile struct {
	Name  string     `yaml:"name" validate:"required"`
	Nodes []NodeFile `yaml:"nodes" validate:"dive"`
	Links [][]string `yaml:"links" validate:"dive,len=2,dive,required"`
}

type NodeFile struct {
	Name     string `yaml:"name" validate:"required"`
	Role     string `yaml:"role"`
	Unlinked bool   `yaml:"unlinked"`
}

// UnmarshalYAML accepts either a bare node name or a mapping.
func (n *NodeFile) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		n.Name = value.Value
		return nil
	}
	type plain NodeFile
	return value.Decode((*plain)(n))
}

type LinkFile struct {
	Source     string `yaml:"source" validate:"required"`
	Target     string `yaml:"target" validate:"required,nefield=Source"`
	SourceNode string `yaml:"source_node"`
	TargetNode string `yaml:"target_node"`
	Medium     *bool  `yaml:"medium"`
}

// WithMedium defaults to true when the file doesn't say.
func (l LinkFile) WithMedium() bool {
	return l.Medium == nil || *l.Medium
}

func LoadFile(path string) (*GlobalTopology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML description and builds the topology it describes.
func Load(r io.Reader) (*GlobalTopology, error) {
	file := &File{}
	if err := yaml.NewDecoder(r).Decode(file); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("invalid topology: %w", err)
	}
	return file.Build()
}

func (file *File) Build() (*GlobalTopology, error) {
	topo := CreateTopology()

	for _, af := range file.Areas {
		area, err := topo.CreateArea(af.Name)
		if err != nil {
			return nil, err
		}
		for _, nf := range af.Nodes {
			opts := make([]NodeOption, 0, 2)
			if nf.Role != "" {
				opts = append(opts, WithRole(Role(nf.Role)))
			}
			if nf.Unlinked {
				opts = append(opts, Unlinked())
			}
			if _, err := area.CreateNode(nf.Name, opts...); err != nil {
				return nil, err
			}
		}
		for _, pair := range af.Links {
			a, err := area.Node(pair[0])
			if err != nil {
				return nil, err
			}
			b, err := area.Node(pair[1])
			if err != nil {
				return nil, err
			}
			if _, err := area.CreateLink(a, b); err != nil {
				return nil, err
			}
		}
	}

	for _, lf := range file.Links {
		source, err := topo.Area(lf.Source)
		if err != nil {
			return nil, err
		}
		target, err := topo.Area(lf.Target)
		if err != nil {
			return nil, err
		}
		sourceEp, err := endpointFor(source, lf.SourceNode)
		if err != nil {
			return nil, err
		}
		targetEp, err := endpointFor(target, lf.TargetNode)
		if err != nil {
			return nil, err
		}
		if _, err := topo.CreateLink(source, target, sourceEp, targetEp, lf.WithMedium()); err != nil {
			return nil, err
		}
	}
	return topo, nil
}

func endpointFor(area *Area, name string) (Endpoint, error) {
	if name == "" {
		return Central, nil
	}
	node, err := area.Node(name)
	if err != nil {
		return Endpoint{}, err
	}
	return At(node), nil
}
