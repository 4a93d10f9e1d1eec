package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	contactform "github.com/goliatone/go-contactform"
	"github.com/goliatone/go-contactform/internal/config"
	"github.com/goliatone/go-contactform/internal/logging"
	"github.com/goliatone/go-contactform/internal/metrics"
	"github.com/goliatone/go-contactform/internal/server"
	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/renderers/jsonapi"
	"github.com/goliatone/go-contactform/pkg/renderers/tui"
	"github.com/goliatone/go-contactform/pkg/renderers/vanilla"
)

func newServeCommand(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the contact form HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides config")
	return cmd
}

func newRenderCommand(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the pristine form as static HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			definition, err := loadDefinition(ctx, cfg)
			if err != nil {
				return codeError(3, "loading form: %s", err)
			}

			html, err := contactform.GenerateHTML(ctx, definition,
				contactform.RenderOptions{Theme: cfg.Theme.RendererConfig()},
				vanilla.WithTemplatesDir(cfg.TemplatesDir),
			)
			if err != nil {
				return codeError(1, "rendering form: %s", err)
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(html)
				return err
			}
			if err := os.WriteFile(out, html, 0o644); err != nil {
				return codeError(1, "writing %s: %s", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Form written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write output to file instead of stdout")
	return cmd
}

func newPromptCommand(configPath *string) *cobra.Command {
	var (
		format      string
		maxAttempts int
		inline      bool
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill in the contact form interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger, err := logging.NewDevelopment(cfg.LogLevel)
			if err != nil {
				return codeError(1, "creating logger: %s", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			definition, err := loadDefinition(ctx, cfg)
			if err != nil {
				return codeError(3, "loading form: %s", err)
			}

			renderer := tui.New(
				tui.WithOutputFormat(tui.OutputFormat(format)),
				tui.WithMaxAttempts(maxAttempts),
				tui.WithInlineValidation(inline),
				tui.WithFormOptions(contact.WithValidateOnChange(cfg.ValidateOnChange)),
			)
			out, err := renderer.Render(ctx, definition, render.RenderOptions{})
			if err != nil {
				logger.Debug("prompt session ended", zap.Error(err))
				return codeError(2, "prompt: %s", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(tui.OutputFormatJSON), "Output format: json, form or pretty")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Give up after this many failed submits (0 means unlimited)")
	cmd.Flags().BoolVar(&inline, "inline", false, "Reject invalid answers before moving to the next field")
	return cmd
}

func runServe(parent context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return codeError(1, "creating logger: %s", err)
	}
	defer func() { _ = logger.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	definition, err := loadDefinition(ctx, cfg)
	if err != nil {
		return codeError(3, "loading form: %s", err)
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return codeError(3, "configuring renderers: %s", err)
	}

	opts := server.Options{
		Form:        definition,
		Registry:    registry,
		Renderer:    cfg.Renderer,
		Logger:      logger,
		Theme:       cfg.Theme.RendererConfig(),
		FormOptions: []contact.Option{contact.WithValidateOnChange(cfg.ValidateOnChange)},
		SessionTTL:  cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
	}
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Metrics = metrics.NewFormMetrics(reg)
		opts.Gatherer = reg
	}

	srv, err := server.New(opts)
	if err != nil {
		return codeError(3, "configuring server: %s", err)
	}
	logger.Info("contact form ready",
		zap.String("operation", definition.OperationID),
		zap.String("renderer", cfg.Renderer),
		zap.Strings("renderers", registry.List()),
	)
	if err := srv.ListenAndServe(ctx, cfg.Addr, cfg.ShutdownGrace); err != nil {
		return codeError(1, "server: %s", err)
	}
	return nil
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, codeError(3, "%s", err)
	}
	return cfg, nil
}

// loadDefinition reads the form from cfg.SchemaPath, falling back to the
// embedded schema.
func loadDefinition(ctx context.Context, cfg config.Config) (model.FormModel, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	raw := contactform.ContactSchema()
	if cfg.SchemaPath != "" {
		data, err := os.ReadFile(cfg.SchemaPath)
		if err != nil {
			return model.FormModel{}, err
		}
		raw = data
	}
	return contactform.LoadForm(ctx, raw, cfg.OperationID)
}

func newRegistry(cfg config.Config) (*render.Registry, error) {
	html, err := vanilla.New(vanilla.WithTemplatesDir(cfg.TemplatesDir))
	if err != nil {
		return nil, err
	}
	registry := render.NewRegistry()
	if err := registry.Register(html); err != nil {
		return nil, err
	}
	if err := registry.Register(jsonapi.New(jsonapi.WithFields(true))); err != nil {
		return nil, err
	}
	if cfg.Renderer != "" {
		if err := registry.SetDefault(cfg.Renderer); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
