package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/modalmcp/config"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tool HTTP server",
		RunE:  runServe,
	}

	cmd.Flags().String("config", "", "Path to modalmcp.yaml or modalmcp.toml")
	cmd.Flags().String("host", config.DefaultHost, "Listen host")
	cmd.Flags().IntP("port", "p", config.DefaultPort, "Listen port")
	cmd.Flags().String("modal-bin", "modal", "Modal CLI executable")
	cmd.Flags().Duration("launch-window", 2*time.Second, "How long a background run must survive to count as started")
	cmd.Flags().String("journal", "", "Record calls in this SQLite journal")
	cmd.Flags().String("catalog", "", "Serve this tool catalog instead of the built-in one")
	cmd.Flags().Bool("deploy-with-uv", false, "Run deploys through `uv run`")

	return cmd
}

// resolveConfig loads the config file and environment, then applies any
// flags the user set explicitly.
func resolveConfig(cmd *cobra.Command) (config.Config, string, error) {
	explicitPath, _ := cmd.Flags().GetString("config")
	cfg, path, err := config.Load(explicitPath)
	if err != nil {
		return config.Config{}, "", exitError(exitConfig, "%v", err)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("modal-bin") {
		cfg.Modal.Binary, _ = flags.GetString("modal-bin")
	}
	if flags.Changed("launch-window") {
		cfg.Modal.LaunchWindow.Duration, _ = flags.GetDuration("launch-window")
	}
	if flags.Changed("journal") {
		cfg.Journal.Path, _ = flags.GetString("journal")
		cfg.Journal.Enabled = true
	}
	if flags.Changed("catalog") {
		cfg.Modal.Catalog, _ = flags.GetString("catalog")
	}
	if flags.Changed("deploy-with-uv") {
		cfg.Modal.DeployWithUV, _ = flags.GetBool("deploy-with-uv")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", exitError(exitConfig, "%v", err)
	}
	return cfg, path, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, configPath, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg.Log.Format, cfg.Log.Level)
	st := stylesFor(cmd)

	s, err := buildStack(cmd.Context(), cfg, logger, stackOptions{})
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.close(ctx); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}()
	s.start()
	logger.Debug("resolved configuration",
		"config", configPath,
		"modal_bin", cfg.Modal.Binary,
		"launch_window", cfg.Modal.LaunchWindow.Duration,
		"deploy_with_uv", cfg.Modal.DeployWithUV,
		"modal_env", config.MaskEnv(cfg.Modal.Env),
		"journal", cfg.Journal.Enabled,
	)

	addr := cfg.Addr()
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	// Signal handling
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, st.Header.Render("modalmcp"))
		fmt.Fprintln(out, st.kv("listening", "http://"+addr))
		fmt.Fprintln(out, st.kv("tools", fmt.Sprintf("%d", s.catalog.Len())))
		fmt.Fprintln(out, st.kv("modal", cfg.Modal.Binary))
		if configPath != "" {
			fmt.Fprintln(out, st.kv("config", configPath))
		}
		if s.journal != nil {
			fmt.Fprintln(out, st.kv("journal", "enabled"))
		}
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(cmd.OutOrStdout(), "Shutting down...")
		timeout := cfg.Server.ShutdownTimeout.Duration
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return exitError(exitRuntime, "shutdown error: %v", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitError(exitRuntime, "server error: %v", err)
		}
		return nil
	}
}
