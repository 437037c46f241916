package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielpatrickdp/ifdd/internal/config"
	"github.com/danielpatrickdp/ifdd/internal/ifdd"
	"github.com/danielpatrickdp/ifdd/internal/logging"
	"github.com/danielpatrickdp/ifdd/internal/service"
	"github.com/danielpatrickdp/ifdd/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a representation over gRPC",
	Long: `Restore the active snapshot from the configured database, or start a fresh
representation when none exists, and serve it over gRPC until interrupted.

Discoveries are written to the discovery log as they happen. The
representation is saved as a new snapshot every --checkpoint interval when it
has grown, and once more on shutdown.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		every, _ := cmd.Flags().GetDuration("checkpoint")
		if addr != "" {
			cfg.Addr = addr
		}
		if err := runServe(cmd.Context(), cfg, dbFlag(cmd), every); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().String("db", "", "Path to the database (defaults to the configured db)")
	serveCmd.Flags().String("addr", "", "Listen address (defaults to the configured addr)")
	serveCmd.Flags().Duration("checkpoint", 5*time.Minute, "Snapshot interval, 0 disables periodic snapshots")
	rootCmd.AddCommand(serveCmd)
}

// #region serve
func runServe(parent context.Context, c *config.Config, dbPath string, every time.Duration) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	runID := uuid.New().String()
	e, parentID, err := openEngine(c, st, runID)
	if err != nil {
		return err
	}

	srv := service.NewServer(e, logger)
	gs := service.NewGRPCServer(srv, logger)
	lis, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", c.Addr, err)
	}
	logger.Info("serving", "addr", lis.Addr().String(), "run", runID, "representation", srv.String())

	cp := &checkpointer{st: st, srv: srv, runID: runID, parentID: parentID, savedNum: -1}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gs.Serve(lis); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		gs.GracefulStop()
		return nil
	})
	if every > 0 {
		g.Go(func() error {
			t := time.NewTicker(every)
			defer t.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-t.C:
					if _, err := cp.save(false); err != nil {
						logger.Warn("checkpoint failed", "error", err)
					}
				}
			}
		})
	}

	serveErr := g.Wait()
	if _, err := cp.save(true); err != nil {
		return errors.Join(serveErr, fmt.Errorf("final snapshot: %w", err))
	}
	return serveErr
}

// openEngine restores the active snapshot or builds a fresh engine from c.
// Discoveries of the new run are recorded under runID.
func openEngine(c *config.Config, st *store.Store, runID string) (*ifdd.Engine, string, error) {
	engineCfg, err := c.EngineConfig()
	if err != nil {
		return nil, "", err
	}
	opts := []ifdd.Option{
		ifdd.WithLogger(logger),
		ifdd.WithDiscoveryHook(logging.Recorder(st.DB(), runID, logger)),
	}
	disc, err := c.Discretizer()
	if err != nil {
		return nil, "", err
	}
	if disc != nil {
		opts = append(opts, ifdd.WithBaseFeatures(disc))
	}

	snap, err := st.GetCurrent()
	if errors.Is(err, store.ErrNoSnapshot) {
		logger.Info("no snapshot found, starting fresh",
			"initial_features", c.Representation.InitialFeatures, "actions", c.Representation.ActionsNum)
		e, err := ifdd.New(c.Representation.InitialFeatures, c.Representation.ActionsNum, engineCfg, opts...)
		return e, "", err
	}
	if err != nil {
		return nil, "", fmt.Errorf("get current: %w", err)
	}
	if snap.InitialNum != c.Representation.InitialFeatures || snap.ActionsNum != c.Representation.ActionsNum {
		logger.Warn("snapshot shape differs from config, using snapshot",
			"snapshot_initial", snap.InitialNum, "snapshot_actions", snap.ActionsNum,
			"config_initial", c.Representation.InitialFeatures, "config_actions", c.Representation.ActionsNum)
	}
	e, err := snap.Restore(engineCfg, opts...)
	if err != nil {
		return nil, "", err
	}
	logger.Info("restored snapshot", "version", snap.VersionID, "features", snap.FeaturesNum)
	return e, snap.VersionID, nil
}

// #endregion serve

// #region checkpoint
// checkpointer saves the served engine as a chain of snapshots.
type checkpointer struct {
	st       *store.Store
	srv      *service.Server
	runID    string
	parentID string
	savedNum int // features_num at the last save
}

// save snapshots the engine unless it has not grown since the last save and
// force is false. It reports whether a snapshot was written.
func (c *checkpointer) save(force bool) (bool, error) {
	var snap store.Snapshot
	err := c.srv.WithEngine(func(e *ifdd.Engine) error {
		if !force && e.FeaturesNum() == c.savedNum {
			return nil
		}
		var err error
		snap, err = store.FromEngine(e, c.parentID, c.runID)
		return err
	})
	if err != nil || snap.Theta == nil {
		return false, err
	}
	saved, err := c.st.SaveSnapshot(snap)
	if err != nil {
		return false, err
	}
	c.parentID = saved.VersionID
	c.savedNum = saved.FeaturesNum
	logger.Info("snapshot saved", "version", saved.VersionID, "features", saved.FeaturesNum)
	return true, nil
}

// #endregion checkpoint
