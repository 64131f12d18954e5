package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/pivotql/internal/api"
	"github.com/roach88/pivotql/internal/engine"
	"github.com/roach88/pivotql/internal/session"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Cube cubeFlags
	Addr string

	// Ready, if set, is called with the bound address once the server
	// accepts connections (for testing).
	Ready func(addr net.Addr)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve compile, query and history endpoints over HTTP.

Without an engine URL the server still compiles requests against CUE cube
definitions; query endpoints then report the engine as unavailable.

Example:
  pivotql serve --addr :8080 --config ./pivotql.yaml
  pivotql serve --cube-dir ./cubes --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	opts.Cube.register(cmd)
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default: config listen_addr)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg := opts.config()
	log := opts.logger()

	addr := opts.Addr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	history, closeHistory, err := opts.openHistory()
	if err != nil {
		return err
	}
	defer closeHistory()

	sess, err := opts.serveSession(ctx)
	if err != nil {
		return err
	}

	hcfg := api.HandlerConfig{Session: sess, Logger: log}
	if history != nil {
		hcfg.History = history
	}
	srv := &http.Server{
		Handler:           api.NewHandler(hcfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	log.Info("server starting", "addr", ln.Addr().String(), "cube", sess.Cube().Name)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", ln.Addr())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")
	if opts.Ready != nil {
		opts.Ready(ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	log.Info("server stopped gracefully")
	return nil
}

// serveSession opens the session the API serves: on the engine when one is
// configured, compile-only on CUE definitions otherwise.
func (o *ServeOptions) serveSession(ctx context.Context) (*session.Session, error) {
	cfg := o.config()
	sopts := o.sessionOptions()
	if o.Cube.cube != "" {
		sopts.Cube = o.Cube.cube
	}

	var eng engine.Engine
	if cfg.Engine.URL != "" {
		client, err := o.engineClient()
		if err != nil {
			return nil, err
		}
		eng = client
	}

	if o.Cube.cubeDir != "" || cfg.CubeDir != "" || eng == nil {
		c, err := o.loadCube(ctx, o.Cube)
		if err != nil {
			return nil, err
		}
		return session.New(eng, c, sopts), nil
	}

	sess, err := session.Open(ctx, eng, sopts)
	if err != nil {
		return nil, WrapExitError(exitCodeFor(err), "failed to open session", err)
	}
	return sess, nil
}
