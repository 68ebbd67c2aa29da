package config

const (
	defaultDataDir            = "~/.local/share/shortloop"
	defaultLogDir             = "~/.local/share/shortloop/logs"
	defaultMaxSources         = 200
	defaultSourcesPerRun      = 5
	defaultItemsPerSource     = 5
	defaultMaxDownloads       = 25
	defaultBaseWeight         = 1.0
	defaultScheduleMode       = "default_interval"
	defaultIntervalMinutes    = 120
	defaultMinLeadMinutes     = 20
	defaultPeakStepMinutes    = 15
	defaultPeakLookaheadHours = 48
	defaultMaxAttempts        = 3
	defaultBackoffMinSeconds  = 5
	defaultBackoffMaxSeconds  = 10
	defaultDiscoveryBump      = 1.0
	defaultCommandTimeoutSecs = 600
	defaultApplyMode          = "blend"
	defaultBlendWeight        = 5.0
	defaultViewWeight         = 1.5
	defaultLikeWeight         = 2.0
	defaultCommentWeight      = 1.0
	defaultCorrelationTTLDays = 7
	defaultPeakCacheTTLHours  = 24
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Discovery: Discovery{
			MaxSources:     defaultMaxSources,
			SourcesPerRun:  defaultSourcesPerRun,
			ItemsPerSource: defaultItemsPerSource,
			MaxDownloads:   defaultMaxDownloads,
		},
		Selection: Selection{
			BaseWeight: defaultBaseWeight,
		},
		Schedule: Schedule{
			Mode:               defaultScheduleMode,
			IntervalMinutes:    defaultIntervalMinutes,
			MinLeadMinutes:     defaultMinLeadMinutes,
			PeakStepMinutes:    defaultPeakStepMinutes,
			PeakLookaheadHours: defaultPeakLookaheadHours,
		},
		Publish: Publish{
			MaxAttempts:        defaultMaxAttempts,
			BackoffMinSeconds:  defaultBackoffMinSeconds,
			BackoffMaxSeconds:  defaultBackoffMaxSeconds,
			DiscoveryBump:      defaultDiscoveryBump,
			CommandTimeoutSecs: defaultCommandTimeoutSecs,
		},
		Analytics: Analytics{
			Apply:              defaultApplyMode,
			BlendWeight:        defaultBlendWeight,
			ViewWeight:         defaultViewWeight,
			LikeWeight:         defaultLikeWeight,
			CommentWeight:      defaultCommentWeight,
			CorrelationTTLDays: defaultCorrelationTTLDays,
			PeakCacheTTLHours:  defaultPeakCacheTTLHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunSummary:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
