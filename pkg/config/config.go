package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Refiner   RefinerTuning
	Export    ExportConfig
	Jobs      JobsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig governs default generation parameters: whether the
// scheduler is enabled, the seed used when a caller omits one, whether the
// MetaRefiner local-search pass runs after the seven placement stages, and
// the run timeout.
type SchedulerConfig struct {
	Enabled       bool
	DefaultSeed   int64
	RefineEnabled bool
	RunTimeout    time.Duration
}

// RefinerTuning carries MetaRefiner's evolutionary and swarm hyperparameters
// (population, tournament, elitism, mutation, crossover, generations, swarm
// cycles) as environment-tunable knobs.
type RefinerTuning struct {
	PopulationSize int
	TournamentSize int
	ElitismCount   int
	MutationRate   float64
	CrossoverRate  float64
	Generations    int
	SwarmCycles    int
	ScoutLimit     int
	Workers        int
	Timeout        time.Duration
}

// ExportConfig configures CSV/PDF timetable export.
type ExportConfig struct {
	Enabled    bool
	StorageDir string
}

// JobsConfig configures the background generation queue.
type JobsConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:       v.GetBool("ENABLE_SCHEDULER"),
		DefaultSeed:   v.GetInt64("SCHEDULER_DEFAULT_SEED"),
		RefineEnabled: v.GetBool("SCHEDULER_REFINE_ENABLED"),
		RunTimeout:    parseDuration(v.GetString("SCHEDULER_RUN_TIMEOUT"), 30*time.Second),
	}

	cfg.Refiner = RefinerTuning{
		PopulationSize: v.GetInt("REFINER_POPULATION_SIZE"),
		TournamentSize: v.GetInt("REFINER_TOURNAMENT_SIZE"),
		ElitismCount:   v.GetInt("REFINER_ELITISM_COUNT"),
		MutationRate:   v.GetFloat64("REFINER_MUTATION_RATE"),
		CrossoverRate:  v.GetFloat64("REFINER_CROSSOVER_RATE"),
		Generations:    v.GetInt("REFINER_GENERATIONS"),
		SwarmCycles:    v.GetInt("REFINER_SWARM_CYCLES"),
		ScoutLimit:     v.GetInt("REFINER_SCOUT_LIMIT"),
		Workers:        v.GetInt("REFINER_WORKERS"),
		Timeout:        parseDuration(v.GetString("REFINER_TIMEOUT"), 10*time.Second),
	}

	cfg.Export = ExportConfig{
		Enabled:    v.GetBool("ENABLE_EXPORT"),
		StorageDir: v.GetString("EXPORT_STORAGE_DIR"),
	}

	cfg.Jobs = JobsConfig{
		WorkerConcurrency: v.GetInt("JOBS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("JOBS_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SCHEDULER", true)
	v.SetDefault("SCHEDULER_DEFAULT_SEED", 42)
	v.SetDefault("SCHEDULER_REFINE_ENABLED", true)
	v.SetDefault("SCHEDULER_RUN_TIMEOUT", "30s")

	v.SetDefault("REFINER_POPULATION_SIZE", 20)
	v.SetDefault("REFINER_TOURNAMENT_SIZE", 3)
	v.SetDefault("REFINER_ELITISM_COUNT", 2)
	v.SetDefault("REFINER_MUTATION_RATE", 0.2)
	v.SetDefault("REFINER_CROSSOVER_RATE", 0.6)
	v.SetDefault("REFINER_GENERATIONS", 30)
	v.SetDefault("REFINER_SWARM_CYCLES", 15)
	v.SetDefault("REFINER_SCOUT_LIMIT", 3)
	v.SetDefault("REFINER_WORKERS", 4)
	v.SetDefault("REFINER_TIMEOUT", "10s")

	v.SetDefault("ENABLE_EXPORT", true)
	v.SetDefault("EXPORT_STORAGE_DIR", "./exports")

	v.SetDefault("JOBS_WORKER_CONCURRENCY", 1)
	v.SetDefault("JOBS_WORKER_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
