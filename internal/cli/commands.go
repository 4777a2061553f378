package cli

import (
	"errors"
	"fmt"

	"github.com/David-Antunes/gone-topo/api"
	"github.com/David-Antunes/gone-topo/internal/deploy"
	"github.com/David-Antunes/gone-topo/internal/provision"
	"github.com/David-Antunes/gone-topo/internal/topology"
	"github.com/spf13/cobra"
)

func (a *app) deployCmd() *cobra.Command {
	var file string
	var reset bool
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create the nodes and links of a topology file",
		Long: `Creates every node, central switch, medium node and link of the topology
in the configured project. Entities that already exist are kept, so a failed
deployment can simply be run again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := topology.LoadFile(file)
			if err != nil {
				return err
			}

			var recorder deploy.Recorder
			mirror, err := a.mirror(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to connect to graph database: %w", err)
			}
			if mirror != nil {
				defer mirror.Close(cmd.Context())
				if reset {
					if err := mirror.Reset(cmd.Context()); err != nil {
						return err
					}
				}
				recorder = mirror
			}

			engine, _, err := a.engine(cmd.Context(), recorder)
			if err != nil {
				return err
			}
			report, err := engine.Deploy(cmd.Context(), topo)
			if report != nil {
				if werr := a.write(cmd, report); werr != nil {
					return werr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "topology file")
	cmd.Flags().BoolVar(&reset, "reset-graph", false, "clear the graph database before deploying")
	cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) describeCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the adjacency of a topology file",
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := topology.LoadFile(file)
			if err != nil {
				return err
			}
			return a.write(cmd, topo.Describe())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "topology file")
	cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) freePortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "free-port <node>",
		Short: "Show the first unused port of a deployed node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, project, err := a.engine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			node, err := provision.NodeByName(cmd.Context(), a.client, project.ProjectId, args[0])
			if err != nil {
				return err
			}
			port, err := engine.Allocator().FindFreePort(cmd.Context(), node)
			if err != nil {
				return err
			}
			return a.write(cmd, port)
		},
	}
}

func (a *app) connectCmd() *cobra.Command {
	var portA, portB string
	cmd := &cobra.Command{
		Use:   "connect <node> <node>",
		Short: "Cable two deployed nodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pa, err := parsePort(portA)
			if err != nil {
				return err
			}
			pb, err := parsePort(portB)
			if err != nil {
				return err
			}
			engine, _, err := a.engine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			link, err := engine.Connect(cmd.Context(), args[0], args[1], pa, pb)
			if err != nil {
				return err
			}
			return a.write(cmd, link)
		},
	}
	cmd.Flags().StringVar(&portA, "port-a", "", "adapter/port on the first node, picked automatically when empty")
	cmd.Flags().StringVar(&portB, "port-b", "", "adapter/port on the second node, picked automatically when empty")
	return cmd
}

func (a *app) pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Show the shortest cabled path between two deployed nodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mirror, err := a.mirror(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to connect to graph database: %w", err)
			}
			if mirror == nil {
				return errors.New("GRAPHDB is not set")
			}
			defer mirror.Close(cmd.Context())
			path, err := mirror.Path(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.write(cmd, path)
		},
	}
}

type serverInfo struct {
	Version   api.Version    `json:"version" yaml:"version"`
	Computes  []api.Compute  `json:"computes" yaml:"computes"`
	Templates []api.Template `json:"templates" yaml:"templates"`
}

func (a *app) serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Show the server version, computes and templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			inspector, ok := a.client.(provision.Inspector)
			if !ok {
				return errors.New("client can't inspect the server")
			}
			info := serverInfo{}
			var err error
			if info.Version, err = inspector.Version(cmd.Context()); err != nil {
				return err
			}
			if info.Computes, err = a.client.ListComputes(cmd.Context()); err != nil {
				return err
			}
			if info.Templates, err = inspector.ListTemplates(cmd.Context()); err != nil {
				return err
			}
			return a.write(cmd, info)
		},
	}
}

// parsePort reads "adapter/port". Empty means no explicit port.
func parsePort(s string) (*api.Port, error) {
	if s == "" {
		return nil, nil
	}
	port := &api.Port{}
	var rest string
	n, _ := fmt.Sscanf(s, "%d/%d%s", &port.AdapterNumber, &port.PortNumber, &rest)
	if n != 2 || port.AdapterNumber < 0 || port.PortNumber < 0 {
		return nil, fmt.Errorf("port %q: want adapter/port", s)
	}
	return port, nil
}
