package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".lendguild/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"lendguild/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

// PolicyEnv carries the lending policy knobs. Defaults are the protocol's
// reference values; amounts are in stroops.
type PolicyEnv struct {
	Tier1MaxLoan int64 `envconfig:"TIER1_MAX_LOAN" default:"5000000"`
	Tier2MaxLoan int64 `envconfig:"TIER2_MAX_LOAN" default:"20000000"`
	Tier3MaxLoan int64 `envconfig:"TIER3_MAX_LOAN" default:"50000000"`
	Tier4MaxLoan int64 `envconfig:"TIER4_MAX_LOAN" default:"100000000"`

	OnTimeBonus    int32 `envconfig:"ON_TIME_BONUS" default:"8"`
	EarlyBonus     int32 `envconfig:"EARLY_BONUS" default:"12"`
	LatePenalty    int32 `envconfig:"LATE_PENALTY" default:"-5"`
	DefaultPenalty int32 `envconfig:"DEFAULT_PENALTY" default:"-25"`

	// Durations in seconds.
	GracePeriod      uint64 `envconfig:"GRACE_PERIOD" default:"86400"`
	EarlyThreshold   uint64 `envconfig:"EARLY_THRESHOLD" default:"43200"`
	DefaultDuration  uint64 `envconfig:"DEFAULT_DURATION" default:"604800"`
	MaxUtilizationPc uint32 `envconfig:"MAX_UTILIZATION_PC" default:"80"`
}

type Env struct {
	BaseEnv
	StorageEnv
	PolicyEnv
}

const namespace = "LENDGUILD"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func StorageEnvFromEnv(env *Env) *StorageEnv {
	return &env.StorageEnv
}

func PolicyEnvFromEnv(env *Env) *PolicyEnv {
	return &env.PolicyEnv
}
