// Command branchd runs the deployment controller: webhook ingestion,
// on-chain registration, git workspace materialization, encrypted
// per-branch secrets, and the supervised worker lifecycle.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/branchd/pkg/api"
	"github.com/cuemby/branchd/pkg/chain"
	"github.com/cuemby/branchd/pkg/config"
	"github.com/cuemby/branchd/pkg/controller"
	"github.com/cuemby/branchd/pkg/crypto"
	"github.com/cuemby/branchd/pkg/log"
	"github.com/cuemby/branchd/pkg/store"
	"github.com/cuemby/branchd/pkg/supervisor"
	"github.com/cuemby/branchd/pkg/telemetry"
	"github.com/cuemby/branchd/pkg/workspace"
)

// Version information (set via ldflags during build).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "branchd",
	Short:   "branchd - git-driven deployment controller",
	Version: Version,
	Long: `branchd turns each (repository, branch) pair into a supervised
worker process anchored by a smart contract on an EVM-compatible chain.

A push to a tracked branch ensures a contract exists on-chain for that
branch, materializes the branch's working tree on disk, injects
encrypted per-branch secrets, and starts or hot-reloads the worker.`,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"branchd version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reconcileCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the controller's HTTP surface and reconciliation loops",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run startup reconciliation once against the bootstrap list and exit",
	Long: `reconcile replays ensure-contract/clone-or-sync/start-if-entrypoint
for every (repo, branch) pair in the bootstrap list, without starting
the HTTP server. Useful for warming disk and DB state before serve runs,
or for verifying a bootstrap file without opening a listening socket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcileOnly()
	},
}

// buildController wires C1-C5 from process configuration, the shared
// construction path for both serve and reconcile.
func buildController(cfg *config.Config) (*controller.Controller, *store.BoltStore, error) {
	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})

	st, err := store.NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	var box *crypto.Box
	if cfg.MasterKey != "" {
		box, err = crypto.NewBoxFromPassphrase(cfg.MasterKey)
		if err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("building crypto box: %w", err)
		}
	}

	chainClient := chain.New(chain.Config{
		RPCURL:          cfg.RPCURL,
		RegistryAddress: cfg.RegistryAddress,
		PrivateKeyHex:   cfg.ChainPrivateKey,
	})

	ws := workspace.New(cfg.WorkspaceRoot, nil)
	sup := supervisor.New()

	ctrl := controller.New(st, box, chainClient, ws, sup, controller.Config{
		BackendURL: cfg.BackendURL,
		RPCURL:     cfg.RPCURL,
	})

	return ctrl, st, nil
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctrl, st, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	bootstrap, err := config.LoadBootstrapList(cfg.BootstrapFile)
	if err != nil {
		return fmt.Errorf("loading bootstrap list: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(bootstrap) > 0 {
		log.Info(fmt.Sprintf("running startup reconciliation over %d bootstrap entries", len(bootstrap)))
		ctrl.ReconcileStartup(ctx, bootstrap)
	}

	collector := telemetry.NewCollector(ctrl.Store)
	collector.Start()
	defer collector.Stop()

	srv := api.NewServer(ctrl)

	errCh := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("listening on %s", cfg.BindAddr))
		if err := srv.Start(cfg.BindAddr); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func runReconcileOnly() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctrl, st, err := buildController(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	bootstrap, err := config.LoadBootstrapList(cfg.BootstrapFile)
	if err != nil {
		return fmt.Errorf("loading bootstrap list: %w", err)
	}
	if len(bootstrap) == 0 {
		fmt.Println("bootstrap list is empty; nothing to reconcile")
		return nil
	}

	ctx := context.Background()
	ctrl.ReconcileStartup(ctx, bootstrap)
	fmt.Printf("reconciled %d bootstrap entries\n", len(bootstrap))
	return nil
}
