package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type AccessConfig struct {
	DashboardPolicy string
}

type MovementConfig struct {
	JitterFloorKm float64
	GapCeiling    time.Duration
	StopRadiusKm  float64
	MinStop       time.Duration
	DefaultWindow time.Duration
	MaxWindow     time.Duration
}

type NewRelicConfig struct {
	Enabled    bool
	AppName    string
	LicenseKey string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Cache       CacheConfig
	Access      AccessConfig
	Movement    MovementConfig
	NewRelic    NewRelicConfig
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	DashboardPolicyApproved = "approved"
	DashboardPolicyExplicit = "explicit"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(strings.TrimSpace(v.GetString("CACHE_BACKEND"))),
			TTL:           v.GetDuration("CACHE_TTL"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
		},
		Access: AccessConfig{
			DashboardPolicy: strings.ToLower(strings.TrimSpace(v.GetString("ACCESS_DASHBOARD_POLICY"))),
		},
		Movement: MovementConfig{
			JitterFloorKm: v.GetFloat64("MOVEMENT_JITTER_FLOOR_KM"),
			GapCeiling:    v.GetDuration("MOVEMENT_GAP_CEILING"),
			StopRadiusKm:  v.GetFloat64("MOVEMENT_STOP_RADIUS_KM"),
			MinStop:       v.GetDuration("MOVEMENT_MIN_STOP"),
			DefaultWindow: v.GetDuration("MOVEMENT_DEFAULT_WINDOW"),
			MaxWindow:     v.GetDuration("MOVEMENT_MAX_WINDOW"),
		},
		NewRelic: NewRelicConfig{
			Enabled:    v.GetBool("NEW_RELIC_ENABLED"),
			AppName:    v.GetString("NEW_RELIC_APP_NAME"),
			LicenseKey: v.GetString("NEW_RELIC_LICENSE_KEY"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheBackendMemory
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 30 * time.Second
	}
	if cfg.Access.DashboardPolicy == "" {
		cfg.Access.DashboardPolicy = DashboardPolicyApproved
	}
	if cfg.Movement.JitterFloorKm <= 0 {
		cfg.Movement.JitterFloorKm = 0.01
	}
	if cfg.Movement.GapCeiling <= 0 {
		cfg.Movement.GapCeiling = 60 * time.Minute
	}
	if cfg.Movement.StopRadiusKm <= 0 {
		cfg.Movement.StopRadiusKm = 0.1
	}
	if cfg.Movement.MinStop <= 0 {
		cfg.Movement.MinStop = 10 * time.Minute
	}
	if cfg.Movement.DefaultWindow <= 0 {
		cfg.Movement.DefaultWindow = 24 * time.Hour
	}
	if cfg.Movement.MaxWindow <= 0 {
		cfg.Movement.MaxWindow = 31 * 24 * time.Hour
	}
	if cfg.NewRelic.AppName == "" {
		cfg.NewRelic.AppName = "opsdesk"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	switch cfg.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if cfg.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", cfg.Cache.Backend)
	}
	switch cfg.Access.DashboardPolicy {
	case DashboardPolicyApproved, DashboardPolicyExplicit:
	default:
		return fmt.Errorf("unsupported ACCESS_DASHBOARD_POLICY %q", cfg.Access.DashboardPolicy)
	}
	if cfg.Movement.MaxWindow < cfg.Movement.DefaultWindow {
		return fmt.Errorf("MOVEMENT_MAX_WINDOW must not be shorter than MOVEMENT_DEFAULT_WINDOW")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
