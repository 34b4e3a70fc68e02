package config

import "strings"

const (
	defaultAppEnv             = "dev"
	defaultAppLogLevel        = "info"
	defaultAppHTTPAddr        = ":9980"
	defaultProfilesPath       = "configs/profiles.yaml"
	defaultTimeoutPerSource   = 8
	defaultMinDataQuality     = 0.5
	defaultAdvisoryTimeout    = 15
	defaultAdvisoryModel      = "gpt-4o-mini"
	defaultBatchConcurrency   = 50
	defaultBatchSize          = 50
	defaultRateInitial        = 10
	defaultRateMin            = 5
	defaultRateMax            = 50
	defaultBreakerThreshold   = 5
	defaultBreakerCooldownSec = 30
	defaultStorePath          = "data/quorum.db"
	defaultReportDir          = "data/reports"
	defaultScanInterval       = "1h"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Scoring.applyDefaults(keys)
	c.Advisory.applyDefaults(keys)
	c.Batch.applyDefaults(keys)
	c.Sources.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Report.applyDefaults(keys)
	c.Scan.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (s *ScoringConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("scoring.profiles_path", &s.ProfilesPath, defaultProfilesPath),
		intFieldDefault("scoring.timeout_per_source_seconds", &s.TimeoutPerSourceSeconds, defaultTimeoutPerSource),
		floatFieldDefault("scoring.min_data_quality", &s.MinDataQuality, defaultMinDataQuality),
	)
}

func (a *AdvisoryConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("advisory.timeout_seconds", &a.TimeoutSeconds, defaultAdvisoryTimeout),
		stringFieldDefault("advisory.model", &a.Model, defaultAdvisoryModel),
	)
}

func (b *BatchConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("batch.max_concurrency", &b.MaxConcurrency, defaultBatchConcurrency),
		intFieldDefault("batch.batch_size", &b.BatchSize, defaultBatchSize),
		floatFieldDefault("batch.rate_limit_initial", &b.RateLimitInitial, defaultRateInitial),
		floatFieldDefault("batch.rate_limit_min", &b.RateLimitMin, defaultRateMin),
		floatFieldDefault("batch.rate_limit_max", &b.RateLimitMax, defaultRateMax),
	)
}

func (s *SourcesConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("sources.breaker.threshold", &s.Breaker.Threshold, defaultBreakerThreshold),
		intFieldDefault("sources.breaker.cooldown_seconds", &s.Breaker.CooldownSeconds, defaultBreakerCooldownSec),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

func (r *ReportConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("report.dir", &r.Dir, defaultReportDir),
	)
}

func (s *ScanConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("scan.interval", &s.Interval, defaultScanInterval),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}
