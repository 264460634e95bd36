package config

import (
	"time"

	"github.com/spf13/viper"
)

// Dispatch defaults.
const (
	DefaultDispatchWorkers           = 3
	DefaultDispatchInvocationTimeout = 90 * time.Second
	DefaultDispatchMaxAttempts       = 3
	DefaultDispatchRetryBackoff      = 2 * time.Second
	DefaultDispatchRequestsPerSec    = 1.0
	DefaultDispatchBurst             = 3
)

// Analysis defaults. These mirror the stock classifier and significance
// policies so a config file only needs to state deviations.
const (
	DefaultConfidenceFloor  = 0.15
	DefaultStructuralWeight = 1.0
	DefaultPerFile          = 4
	DefaultFilesCap         = 60
	DefaultPerSymbol        = 3
	DefaultSymbolsCap       = 30
	DefaultModifiedBonus    = 10
	DefaultBreakingFloor    = 70
	DefaultModerateAt       = 30
	DefaultMajorAt          = 70
)

// Generator defaults.
const (
	DefaultGeneratorModel = "gpt-4o-mini"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.prometheus", false)
	v.SetDefault("metrics.listen_addr", ":9464")

	v.SetDefault("generator.model", DefaultGeneratorModel)
	v.SetDefault("generator.api_key", "")

	v.SetDefault("dispatch.workers", DefaultDispatchWorkers)
	v.SetDefault("dispatch.invocation_timeout", DefaultDispatchInvocationTimeout)
	v.SetDefault("dispatch.max_attempts", DefaultDispatchMaxAttempts)
	v.SetDefault("dispatch.retry_backoff", DefaultDispatchRetryBackoff)
	v.SetDefault("dispatch.requests_per_second", DefaultDispatchRequestsPerSec)
	v.SetDefault("dispatch.burst", DefaultDispatchBurst)

	v.SetDefault("analysis.confidence_floor", DefaultConfidenceFloor)
	v.SetDefault("analysis.structural_weight", DefaultStructuralWeight)
	v.SetDefault("analysis.per_file", DefaultPerFile)
	v.SetDefault("analysis.files_cap", DefaultFilesCap)
	v.SetDefault("analysis.per_symbol", DefaultPerSymbol)
	v.SetDefault("analysis.symbols_cap", DefaultSymbolsCap)
	v.SetDefault("analysis.modified_bonus", DefaultModifiedBonus)
	v.SetDefault("analysis.breaking_floor", DefaultBreakingFloor)
	v.SetDefault("analysis.moderate_at", DefaultModerateAt)
	v.SetDefault("analysis.major_at", DefaultMajorAt)
}
