package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// Sync tunes the device reconciliation pipeline.
	Sync *SyncConfig `json:"sync" yaml:"sync"`

	// Media configures the directory served to devices for content download.
	Media *MediaConfig `json:"media" yaml:"media"`

	// Agent configures the on-device agent binary. Unused by the server.
	Agent *AgentConfig `json:"agent" yaml:"agent"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// SyncConfig defines tuning knobs for the heartbeat reconciliation pipeline.
type SyncConfig struct {
	// CacheTTL bounds staleness of reconciliation cache entries. The TTL is a
	// backstop only: schedule/playlist mutations invalidate explicitly.
	CacheTTL      time.Duration `json:"cacheTtl" yaml:"cacheTtl"`
	CacheCapacity int           `json:"cacheCapacity" yaml:"cacheCapacity"`

	// PingFlushInterval is the window over which device liveness writes are
	// coalesced into one update per device.
	PingFlushInterval time.Duration `json:"pingFlushInterval" yaml:"pingFlushInterval"`

	// OfflineSweepInterval drives the sweeper that marks silent devices offline.
	OfflineSweepInterval time.Duration `json:"offlineSweepInterval" yaml:"offlineSweepInterval"`

	// LivenessTimeout is how long a device may stay silent before it is
	// presumed offline.
	LivenessTimeout time.Duration `json:"livenessTimeout" yaml:"livenessTimeout"`

	// SnapshotCleanupInterval drives the cleanup of resolution snapshots kept
	// for devices that have been removed from the fleet.
	SnapshotCleanupInterval time.Duration `json:"snapshotCleanupInterval" yaml:"snapshotCleanupInterval"`
}

// MediaConfig defines the server-side media directory.
type MediaConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// AgentConfig defines configuration for the device agent binary.
type AgentConfig struct {
	ServerURL string `json:"serverUrl" yaml:"serverUrl"`
	Name      string `json:"name" yaml:"name"`

	// StateDir holds the persisted sync state so a restart resumes with the
	// last-known schedule and playlist.
	StateDir string `json:"stateDir" yaml:"stateDir"`
	MediaDir string `json:"mediaDir" yaml:"mediaDir"`

	HeartbeatInterval time.Duration `json:"heartbeatInterval" yaml:"heartbeatInterval"`
	EnforcerTick      time.Duration `json:"enforcerTick" yaml:"enforcerTick"`

	// SettleDelay is the pause between wake-lock re-acquisition and the probe
	// during recovery escalation.
	SettleDelay time.Duration `json:"settleDelay" yaml:"settleDelay"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: SYNC_CACHETTL -> sync.cacheTtl (not sync.cachettl)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.Postgres != nil {
		// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	applySyncDefaults(cfg)
	applyAgentDefaults(cfg)

	if cfg.Media == nil {
		cfg.Media = &MediaConfig{Dir: "./media"}
	}

	return cfg, nil
}

func applySyncDefaults(cfg *Config) {
	if cfg.Sync == nil {
		cfg.Sync = &SyncConfig{}
	}
	if cfg.Sync.CacheTTL <= 0 {
		cfg.Sync.CacheTTL = 30 * time.Second
	}
	if cfg.Sync.CacheCapacity <= 0 {
		cfg.Sync.CacheCapacity = 10_000
	}
	if cfg.Sync.PingFlushInterval <= 0 {
		cfg.Sync.PingFlushInterval = 5 * time.Second
	}
	if cfg.Sync.OfflineSweepInterval <= 0 {
		cfg.Sync.OfflineSweepInterval = 15 * time.Second
	}
	if cfg.Sync.LivenessTimeout <= 0 {
		cfg.Sync.LivenessTimeout = 45 * time.Second
	}
	if cfg.Sync.SnapshotCleanupInterval <= 0 {
		cfg.Sync.SnapshotCleanupInterval = 5 * time.Minute
	}
}

func applyAgentDefaults(cfg *Config) {
	if cfg.Agent == nil {
		return
	}
	if cfg.Agent.HeartbeatInterval <= 0 {
		cfg.Agent.HeartbeatInterval = 10 * time.Second
	}
	if cfg.Agent.EnforcerTick <= 0 {
		cfg.Agent.EnforcerTick = time.Second
	}
	if cfg.Agent.SettleDelay <= 0 {
		cfg.Agent.SettleDelay = 5 * time.Second
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
