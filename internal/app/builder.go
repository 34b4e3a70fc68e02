package app

import (
	"context"
	"fmt"
	"time"

	"quorum/internal/aggregate"
	"quorum/internal/batch"
	"quorum/internal/config"
	"quorum/internal/logger"
	"quorum/internal/notify"
	"quorum/internal/profile"
	"quorum/internal/report"
	"quorum/internal/score"
	"quorum/internal/source"
	"quorum/internal/store"
	httpapi "quorum/internal/transport/http"
	"quorum/internal/verdict"
	"quorum/internal/verdict/advisory"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
)

// AppBuilder assembles the application from config.
type AppBuilder struct {
	cfg *config.Config
}

func NewAppBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	cfg := b.cfg

	profiles, err := profile.NewLoader(cfg.Scoring.ProfilesPath)
	if err != nil {
		return nil, fmt.Errorf("loading profiles failed: %w", err)
	}
	if err := profiles.Watch(); err != nil {
		logger.Warnf("profile hot reload disabled: %v", err)
	}

	registry, err := b.buildRegistry()
	if err != nil {
		return nil, err
	}
	if err := checkProfileSources(profiles, registry); err != nil {
		return nil, err
	}

	aggregator := aggregate.New(
		time.Duration(cfg.Scoring.TimeoutPerSourceSeconds)*time.Second,
		cfg.Scoring.MinDataQuality,
	)

	var assessor advisory.Assessor
	if cfg.Advisory.Enabled {
		assessor = advisory.NewChatClient(cfg.Advisory.APIURL, cfg.Advisory.APIKey, cfg.Advisory.Model)
		logger.Infof("advisory enabled: model=%s", cfg.Advisory.Model)
	}
	validator := verdict.NewValidator(
		assessor,
		time.Duration(cfg.Advisory.TimeoutSeconds)*time.Second,
		cfg.Scoring.MinDataQuality,
	)

	limiter := batch.NewAdaptiveLimiter(cfg.Batch.RateLimitInitial, cfg.Batch.RateLimitMin, cfg.Batch.RateLimitMax)
	orchestrator := batch.NewOrchestrator(
		cfg.Batch.MaxConcurrency,
		cfg.Batch.BatchSize,
		time.Duration(cfg.Batch.BudgetSeconds)*time.Second,
		limiter,
	)

	var recorder *store.Recorder
	var history *store.History
	if cfg.Store.Enabled {
		recorder, err = store.NewRecorder(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("opening store failed: %w", err)
		}
		history, err = store.NewHistory(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("opening store reader failed: %w", err)
		}
	}

	var notifier notify.TextNotifier
	if cfg.Notify.Telegram.Enabled {
		notifier = notify.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	}

	var reports *report.Writer
	if cfg.Report.Enabled {
		reports = report.NewWriter(cfg.Report.Dir)
	}

	svc := &score.Service{
		Profiles:     profiles,
		Registry:     registry,
		Aggregator:   aggregator,
		Validator:    validator,
		Orchestrator: orchestrator,
		Recorder:     recorder,
		Notifier:     notifier,
		Reports:      reports,
	}
	server := httpapi.NewServer(cfg.App.HTTPAddr, httpapi.NewRouter(svc, profiles, history))

	return &App{
		cfg:      cfg,
		profiles: profiles,
		service:  svc,
		server:   server,
		recorder: recorder,
		history:  history,
	}, nil
}

func (b *AppBuilder) buildRegistry() (*source.Registry, error) {
	cfg := b.cfg.Sources
	registry := source.NewRegistry()
	breakerCooldown := time.Duration(cfg.Breaker.CooldownSeconds) * time.Second
	guard := func(s source.Source) source.Source {
		return source.WithBreaker(s, cfg.Breaker.Threshold, breakerCooldown)
	}

	for _, h := range cfg.HTTP {
		s := source.NewHTTPJSONSource(h.ID, h.URL, h.ValuePath, h.Min, h.Max)
		if err := registry.Register(guard(s)); err != nil {
			return nil, err
		}
	}
	for _, st := range cfg.Static {
		if err := registry.Register(&source.StaticSource{SourceID: st.ID, Value: st.Value}); err != nil {
			return nil, err
		}
	}
	if cfg.Binance.Enabled {
		if cfg.Binance.Momentum {
			s := source.NewMomentumSource("momentum", binance.NewClient("", ""))
			if err := registry.Register(guard(s)); err != nil {
				return nil, err
			}
		}
		if cfg.Binance.Funding {
			s := source.NewFundingSource("funding", futures.NewClient("", ""))
			if err := registry.Register(guard(s)); err != nil {
				return nil, err
			}
		}
	}
	if cfg.FearGreed.Enabled {
		if err := registry.Register(guard(source.NewFearGreedSource("fear_greed"))); err != nil {
			return nil, err
		}
	}
	if len(registry.IDs()) == 0 {
		return nil, fmt.Errorf("no signal sources configured")
	}
	logger.Infof("registered sources: %v", registry.IDs())
	return registry, nil
}

// checkProfileSources fails startup when a profile references a source id
// nothing provides. Hot reloads re-check inside the loader instead.
func checkProfileSources(profiles *profile.Loader, registry *source.Registry) error {
	snap := profiles.Snapshot()
	for name, p := range snap.Profiles {
		for _, e := range p.Sources {
			if _, ok := registry.Lookup(e.SourceID); !ok {
				return fmt.Errorf("profile %s references unknown source %s", name, e.SourceID)
			}
		}
	}
	return nil
}
