package main

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/rover/internal/config"
	"github.com/vango-dev/rover/internal/devtools"
	"github.com/vango-dev/rover/internal/errors"
	"github.com/vango-dev/rover/pkg/observe"
	"github.com/vango-dev/rover/pkg/persist"
	"github.com/vango-dev/rover/pkg/reactive"
	"github.com/vango-dev/rover/pkg/ui"
	"github.com/vango-dev/rover/pkg/uitest"
)

type demoOptions struct {
	configPath string
	steps      int
	persist    string
	devtools   bool
	addr       string
}

func demoCmd() *cobra.Command {
	var opts demoOptions

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the counter scene headlessly",
		Long: `Run the counter scene: a value, a derived value holding twice the value,
and a text node bound to the derived value.

Each step increments the value twice inside one batch, so the bound effect
reruns once and the render pass updates the text node once. The scene is
printed after mount and after every render pass.

Examples:
  rover demo
  rover demo --steps 5
  rover demo --persist rover.db
  rover demo --devtools --addr localhost:7777`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to rover.yaml (default: nearest in working directory)")
	cmd.Flags().IntVarP(&opts.steps, "steps", "n", 3, "Number of batched update steps")
	cmd.Flags().StringVar(&opts.persist, "persist", "", "SQLite file to restore from and save to (overrides persist.path)")
	cmd.Flags().BoolVar(&opts.devtools, "devtools", false, "Serve the inspector until interrupted")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Inspector address (overrides devtools.addr)")

	return cmd
}

func loadConfig(opts demoOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}
	if opts.persist != "" {
		cfg.Persist.Path = opts.persist
	}
	if opts.devtools {
		cfg.Devtools.Enabled = true
	}
	if opts.addr != "" {
		cfg.Devtools.Addr = opts.addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// counterScene is the demo's reactive state and node tree.
type counterScene struct {
	rt     *reactive.Runtime
	reg    *ui.Registry
	count  reactive.ValueID
	double reactive.DerivedID
	label  ui.NodeID
}

func newCounterScene(rt *reactive.Runtime, logger *slog.Logger) (*counterScene, error) {
	s := &counterScene{rt: rt, reg: ui.NewRegistry(rt, ui.WithLogger(logger))}

	s.count = rt.CreateValue(reactive.Int(0))
	s.double = rt.CreateDerived(func() (reactive.Value, error) {
		v, err := rt.ReadValue(s.count)
		if err != nil {
			return reactive.Absent(), err
		}
		n, ok := v.AsNumber()
		if !ok {
			return reactive.Absent(), fmt.Errorf("count is %s, not a number", v.Kind())
		}
		return reactive.Number(n * 2), nil
	})

	var err error
	s.label, err = s.reg.BindText(func() (reactive.Value, error) {
		v, err := rt.ReadDerived(s.double)
		if err != nil {
			return reactive.Absent(), err
		}
		return reactive.Text("double: " + v.String()), nil
	})
	if err != nil {
		return nil, err
	}

	title, err := s.reg.CreateNode(ui.StaticText("counter"))
	if err != nil {
		return nil, err
	}
	root, err := s.reg.CreateNode(ui.Column(title, s.label))
	if err != nil {
		return nil, err
	}
	if err := s.reg.SetRoot(root); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *counterScene) cells() map[string]reactive.ValueID {
	return map[string]reactive.ValueID{"count": s.count}
}

// step increments the count twice in one batch.
func (s *counterScene) step() error {
	var writeErr error
	batchErr := s.rt.Batch(func() {
		for i := 0; i < 2 && writeErr == nil; i++ {
			writeErr = s.rt.Update(s.count, func(v reactive.Value) reactive.Value {
				n, _ := v.AsNumber()
				return reactive.Number(n + 1)
			})
		}
	})
	if writeErr != nil {
		return writeErr
	}
	return batchErr
}

func runDemo(ctx context.Context, out, logOut io.Writer, opts demoOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger(logOut)
	if err != nil {
		return err
	}

	metricsRegistry := prometheus.NewRegistry()
	observers := []reactive.Observer{}
	if cfg.Metrics.Enabled {
		observers = append(observers, observe.NewMetrics(
			observe.WithNamespace(cfg.Metrics.Namespace),
			observe.WithRegistry(metricsRegistry),
		))
	}

	runtimeID := uuid.Must(uuid.NewV7()).String()
	observers = append(observers, observe.NewTracer(observe.WithRuntimeID(runtimeID)))

	rt := reactive.New(
		reactive.WithID(runtimeID),
		reactive.WithLogger(logger),
		reactive.WithMaxEffectRuns(cfg.Runtime.MaxEffectRuns),
		reactive.WithObserver(observe.Multi(observers...)),
	)
	defer rt.Close()

	scene, err := newCounterScene(rt, logger)
	if err != nil {
		return err
	}

	var store *persist.Store
	if path := cfg.PersistPath(); path != "" {
		store, err = persist.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		snap, err := store.Restore(ctx, rt, cfg.Persist.Snapshot, scene.cells())
		switch {
		case goerrors.Is(err, persist.ErrNotFound):
			logger.Info("no snapshot to restore", slog.String("name", cfg.Persist.Snapshot))
		case err != nil:
			return err
		default:
			logger.Info("snapshot restored",
				slog.String("id", snap.ID),
				slog.Time("created", snap.CreatedAt),
			)
		}
	}

	recorder := uitest.NewRecorder()
	var renderer ui.Renderer = recorder
	var server *devtools.Server
	if cfg.Devtools.Enabled {
		hub := devtools.NewHub(logger)
		tap := devtools.Tap(recorder, hub)
		renderer = tap
		server = devtools.NewServer(hub, tap,
			devtools.WithGatherer(metricsRegistry),
			devtools.WithLogger(logger),
		)
	}

	if err := scene.reg.Mount(renderer); err != nil {
		return err
	}
	fmt.Fprintf(out, "== mount\n%s", recorder.Snapshot())

	for i := 1; i <= opts.steps; i++ {
		if err := scene.step(); err != nil {
			return err
		}
		if err := scene.reg.Render(); err != nil {
			return err
		}
		fmt.Fprintf(out, "== step %d\n%s", i, recorder.Snapshot())
	}
	if v := recorder.Violations(); len(v) > 0 {
		return errors.New("R080").WithDetailf("renderer contract violated: %v", v)
	}

	if store != nil {
		snap, err := store.SaveRuntime(ctx, rt, cfg.Persist.Snapshot, scene.cells())
		if err != nil {
			return err
		}
		if cfg.Persist.Keep > 0 {
			if _, err := store.Prune(ctx, cfg.Persist.Snapshot, cfg.Persist.Keep); err != nil {
				return err
			}
		}
		logger.Info("snapshot saved", slog.String("id", snap.ID))
	}

	if server != nil {
		ln, err := net.Listen("tcp", cfg.Devtools.Addr)
		if err != nil {
			return errors.New("R080").Wrap(err)
		}
		info(out, "devtools on http://%s (Ctrl+C to stop)", ln.Addr())
		return server.Serve(ctx, ln)
	}
	return nil
}
