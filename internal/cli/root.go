package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/David-Antunes/gone-topo/api"
	"github.com/David-Antunes/gone-topo/internal/config"
	"github.com/David-Antunes/gone-topo/internal/deploy"
	"github.com/David-Antunes/gone-topo/internal/graphDB"
	"github.com/David-Antunes/gone-topo/internal/metrics"
	"github.com/David-Antunes/gone-topo/internal/provision"
	"github.com/spf13/cobra"
)

var emulationLog = log.New(os.Stderr, "EMULATION INFO: ", log.Ltime)

// app is the state shared by every command of one invocation.
type app struct {
	envFile      string
	outputFormat string
	dryRun       bool

	cfg     *config.Config
	metrics *metrics.Registry
	client  provision.Provisioner
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "gone-topo",
		Short: "Deploy multi-area topologies onto a GNS3 server",
		Long: `gone-topo reads a topology description, made of areas, their nodes and
the links between areas, and creates the matching devices and cables in a
GNS3 project.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "settings file")
	root.PersistentFlags().StringVarP(&a.outputFormat, "output", "o", "json", "output format: json, yaml")
	root.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, "run against an in-memory server")

	root.AddCommand(
		a.deployCmd(),
		a.describeCmd(),
		a.freePortCmd(),
		a.connectCmd(),
		a.pathCmd(),
		a.serverCmd(),
	)
	return root
}

func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	cfg.PrintVariables()
	a.cfg = cfg
	a.metrics = metrics.NewRegistry()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		go func() {
			emulationLog.Println("serving metrics on", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				emulationLog.Println(err)
			}
		}()
	}

	if a.dryRun {
		mock := provision.NewMockClient()
		mock.AddProject(cfg.Project)
		a.client = mock
		return nil
	}
	a.client = provision.NewClient(&http.Client{}, cfg.GNS3URL, provision.Options{
		Username:      cfg.GNS3User,
		Password:      cfg.GNS3Password,
		Timeout:       cfg.RequestTimeout(),
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.RateBurst,
		MaxRetries:    cfg.MaxRetries,
		Backoff:       cfg.RetryBackoff(),
		Metrics:       a.metrics,
	})
	return nil
}

// engine opens the configured project and compute and builds an engine on them.
func (a *app) engine(ctx context.Context, recorder deploy.Recorder) (*deploy.Engine, api.Project, error) {
	project, err := provision.OpenProject(ctx, a.client, a.cfg.Project)
	if err != nil {
		return nil, project, fmt.Errorf("failed to open project: %w", err)
	}
	compute, err := provision.SelectCompute(ctx, a.client, a.cfg.Compute)
	if err != nil {
		return nil, project, fmt.Errorf("failed to select compute: %w", err)
	}
	return deploy.NewEngine(a.client, deploy.Options{
		ProjectId:   project.ProjectId,
		ComputeId:   compute.ComputeId,
		Concurrency: a.cfg.DeployConcurrency,
		Metrics:     a.metrics,
		Recorder:    recorder,
	}), project, nil
}

// mirror is nil when no graph database is configured.
func (a *app) mirror(ctx context.Context) (*graphDB.Mirror, error) {
	uri := a.cfg.GraphDBURI()
	if uri == "" {
		return nil, nil
	}
	return graphDB.NewMirror(ctx, uri, a.cfg.GraphDBUser, a.cfg.GraphDBPassword)
}
