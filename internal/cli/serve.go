package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jackhunterking/beautycanvas/internal/api"
	"github.com/jackhunterking/beautycanvas/pkg/compose"
	"github.com/jackhunterking/beautycanvas/pkg/credits"
	"github.com/jackhunterking/beautycanvas/pkg/enhance"
	"github.com/jackhunterking/beautycanvas/pkg/httputil"
	"github.com/jackhunterking/beautycanvas/pkg/project"
	"github.com/jackhunterking/beautycanvas/pkg/storage"
)

const (
	shutdownGrace     = 10 * time.Second // drain window after SIGINT/SIGTERM
	readHeaderTimeout = 5 * time.Second
)

// serveCommand creates the serve command that runs the editing API server.
func (c *CLI) serveCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the editing API server",
		Long: `Run the HTTP server exposing slot editing, enhancement jobs,
project persistence, credits, and preview rendering.

Configuration is read from a TOML file; see beautycanvas.example.toml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "beautycanvas.toml", "path to TOML config file")

	return cmd
}

// runServe builds the full editing stack from config and serves it until the
// context is cancelled.
func (c *CLI) runServe(ctx context.Context, configPath string) error {
	logger := loggerFromContext(ctx)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded config from %s", configPath)

	tmpl, err := resolveTemplate(ctx, cfg.TemplateDir, cfg.TemplateID)
	if err != nil {
		return err
	}
	logger.Infof("Using template %q (%d slots)", tmpl.ID, len(tmpl.Slots))

	cache, err := httputil.NewCache(cfg.Cache.Dir, cfg.CacheTTL())
	if err != nil {
		return err
	}
	renderer := compose.NewRenderer(compose.NewDefaultSource(cache), logger)

	uploader, err := storage.NewDir(cfg.Storage.Dir, cfg.Storage.BaseURL)
	if err != nil {
		return err
	}

	jobs, creditStore, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	ledger := credits.NewLedger(creditStore, cfg.Credits.MonthlyAllocation)

	enhancer, err := enhance.NewService(enhance.ServiceOptions{
		Queue:   enhance.NewHTTPQueueClient(cfg.Queue.BaseURL, cfg.Queue.APIKey),
		Jobs:    jobs,
		Ledger:  ledger,
		Catalog: cfg.Catalog(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	repo, cleanup, err := buildRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server, err := api.NewServer(api.Options{
		Template: tmpl,
		Renderer: renderer,
		Enhancer: enhancer,
		Saver:    project.NewSaver(repo, uploader, logger),
		Ledger:   ledger,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", cfg.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// buildStores selects redis-backed job and credit stores when an address is
// configured, in-process memory stores otherwise.
func buildStores(ctx context.Context, cfg *Config, logger *log.Logger) (enhance.JobStore, credits.Store, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("Using in-memory job and credit stores")
		return enhance.NewMemoryJobStore(), credits.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}
	logger.Infof("Connected to redis at %s", cfg.Redis.Addr)
	return enhance.NewRedisJobStore(client), credits.NewRedisStore(client), nil
}

// buildRepository selects the mongo project repository when a URI is
// configured, an in-process memory repository otherwise. The returned cleanup
// closes the mongo connection.
func buildRepository(ctx context.Context, cfg *Config, logger *log.Logger) (project.Repository, func(), error) {
	if cfg.Mongo.URI == "" {
		logger.Info("Using in-memory project repository")
		return project.NewMemoryRepository(), func() {}, nil
	}

	client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	logger.Infof("Connected to mongo database %q", cfg.Mongo.Database)

	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	cleanup := func() { _ = client.Disconnect(context.Background()) }
	return project.NewMongoRepository(coll), cleanup, nil
}
