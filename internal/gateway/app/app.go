package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"compass/internal/advice"
	"compass/internal/classify"
	"compass/internal/gateway/config"
	"compass/internal/gateway/handler/rpc"
	"compass/internal/gateway/server"
	"compass/internal/llm"
	"compass/internal/metrics"
	"compass/internal/model"
	"compass/internal/pipeline"
	"compass/internal/profile"
	"compass/internal/trace"
)

type App struct {
	server   *server.Server
	handler  http.Handler
	invoker  *llm.Invoker
	profiles profile.Store
	logger   *log.Logger
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return Build(context.Background(), cfg, log.Default())
}

// Build wires the service from cfg. The registry is loaded once here and
// shared read-only by every request.
func Build(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}
	core, err := NewCore(cfg, logger)
	if err != nil {
		return nil, err
	}

	profiles, err := openProfiles(ctx, cfg.Profile, logger)
	if err != nil {
		_ = core.Invoker.Close()
		return nil, err
	}

	guidance := rpc.NewGuidanceHandler(core.Advice, core.Classify, core.Registry, profiles, logger)
	metricsHandler := promhttp.HandlerFor(core.Gatherer, promhttp.HandlerOpts{})
	mux := server.NewMux(guidance, metricsHandler, logger)

	return &App{
		server:   server.New(cfg.Port, mux, logger),
		handler:  mux,
		invoker:  core.Invoker,
		profiles: profiles,
		logger:   logger,
	}, nil
}

// Core is the pipeline stack without the HTTP surface. The CLI runs it
// in-process.
type Core struct {
	Registry *model.Registry
	Invoker  *llm.Invoker
	Advice   *advice.Pipeline
	Classify *classify.Pipeline
	Gatherer prometheus.Gatherer
}

func NewCore(cfg *config.Config, logger *log.Logger) (*Core, error) {
	reg, err := loadRegistry(cfg.Model)
	if err != nil {
		return nil, err
	}
	checkDefaultCredential(reg, cfg.Model.Fake, logger)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.MustNew(promReg)

	hook, err := trace.New(trace.Config{
		Sink: cfg.Trace.Sink,
		Dir:  cfg.Trace.Dir,
		S3: trace.S3Config{
			Endpoint:  cfg.Trace.Endpoint,
			Region:    cfg.Trace.Region,
			AccessKey: cfg.Trace.AccessKey,
			SecretKey: cfg.Trace.SecretKey,
			Bucket:    cfg.Trace.Bucket,
			Prefix:    cfg.Trace.Prefix,
			UseSSL:    cfg.Trace.UseSSL,
		},
	}, logger, m)
	if err != nil {
		return nil, err
	}
	if hook != nil {
		logger.Printf("trace: sink=%s", cfg.Trace.Sink)
	}

	opts := []llm.InvokerOption{
		llm.WithObserver(m),
		llm.WithInvokerLogger(logger),
		llm.WithMiddleware(llm.WithLogging(logger), llm.WithHooks(hook)),
	}
	if cfg.Model.Fake {
		logger.Printf("llm: using fake clients (LLM_FAKE)")
		opts = append(opts,
			llm.WithFactory(model.KindGemini, llm.NewFake),
			llm.WithFactory(model.KindOpenAI, llm.NewFake),
		)
	}
	inv, err := llm.NewInvoker(cfg.Model.ClientCacheSize, opts...)
	if err != nil {
		return nil, err
	}

	var creds llm.CredentialSource = llm.EnvCredentials{}
	if cfg.Model.Fake {
		creds = fakeCredentials{}
	}
	runner := &pipeline.Runner{
		Registry:    reg,
		Invoker:     inv,
		Credentials: creds,
		Metrics:     m,
		Logger:      logger,
	}
	return &Core{
		Registry: reg,
		Invoker:  inv,
		Advice:   advice.New(runner),
		Classify: classify.New(runner),
		Gatherer: promReg,
	}, nil
}

func loadRegistry(cfg config.ModelConfig) (*model.Registry, error) {
	def := model.WithDefault(cfg.Provider, cfg.ID)
	var (
		reg *model.Registry
		err error
	)
	if cfg.RegistryFile != "" {
		reg, err = model.LoadFile(cfg.RegistryFile, def)
	} else {
		reg, err = model.LoadDefault(def)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model registry: %w", err)
	}
	return reg, nil
}

// checkDefaultCredential reports a missing key for the default model at
// startup. Requests still resolve credentials per call.
func checkDefaultCredential(reg *model.Registry, fake bool, logger *log.Logger) {
	if fake {
		return
	}
	d := reg.Default()
	p, ok := reg.Provider(d.ProviderID)
	if !ok {
		return
	}
	if _, err := llm.ResolveCredential(llm.EnvCredentials{}, p, d); err != nil {
		logger.Printf("ALARM app: default model %s: %v", d.Key(), err)
	}
}

// fakeCredentials satisfies every lookup; fake clients ignore the key.
type fakeCredentials struct{}

func (fakeCredentials) Credential(string) (string, bool) { return "fake", true }

func openProfiles(ctx context.Context, cfg config.ProfileConfig, logger *log.Logger) (profile.Store, error) {
	if cfg.PostgresDSN != "" {
		s, err := profile.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open profile store: %w", err)
		}
		logger.Printf("profile store: postgres")
		return s, nil
	}
	var seed map[string]profile.Viewpoint
	if cfg.SeedFile != "" {
		var err error
		seed, err = profile.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
	}
	logger.Printf("profile store: in-memory users=%d", len(seed))
	return profile.NewMemoryStore(seed), nil
}

// Handler is the full HTTP surface, for in-process tests.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.invoker.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if c, ok := a.profiles.(interface{ Close() error }); ok {
		if cerr := c.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}
