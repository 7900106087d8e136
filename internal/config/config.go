package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/baseball_stats/internal/ai"
	"github.com/Skotchmaster/baseball_stats/internal/ingest"
	envcfg "github.com/Skotchmaster/baseball_stats/pkg/config"
	"github.com/Skotchmaster/baseball_stats/pkg/db"
	"golang.org/x/crypto/bcrypt"
)

const MinSecretLength = 32

type Config struct {
	AppName        string
	Port           string
	Debug          bool
	LogLevel       string
	AllowedOrigins []string

	DatabaseURL   string
	DBPoolSize    int
	DBMaxOverflow int
	DBPoolTimeout time.Duration

	SecretKey    string
	JWTAlgorithm string
	AccessTTL    time.Duration
	BcryptCost   int

	OpenAIKey   string
	OpenAIModel string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	KafkaBrokers []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IngestAPIURL      string
	IngestTimeout     time.Duration
	IngestAliasesFile string
}

// Load reads the process environment. It never fails; call Validate before use.
func Load() *Config {
	cfg := &Config{
		AppName:        envcfg.EnvDefault("APP_NAME", "Baseball Stats API"),
		Port:           envcfg.EnvDefault("SERVER_PORT", "8000"),
		Debug:          envcfg.EnvBoolDefault("DEBUG", false),
		LogLevel:       envcfg.EnvDefault("LOG_LEVEL", "info"),
		AllowedOrigins: envcfg.CSV(envcfg.EnvDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8000")),

		DatabaseURL:   envcfg.EnvDefault("DATABASE_URL", ""),
		DBPoolSize:    envcfg.EnvIntDefault("DB_POOL_SIZE", 5),
		DBMaxOverflow: envcfg.EnvIntDefault("DB_MAX_OVERFLOW", 10),
		DBPoolTimeout: envcfg.EnvDurationDefault("DB_POOL_TIMEOUT", 30*time.Second),

		SecretKey:    envcfg.EnvDefault("SECRET_KEY", ""),
		JWTAlgorithm: strings.ToUpper(envcfg.EnvDefault("JWT_ALGORITHM", "HS256")),
		AccessTTL:    time.Duration(envcfg.EnvIntDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		BcryptCost:   envcfg.EnvIntDefault("BCRYPT_COST", bcrypt.DefaultCost),

		OpenAIKey:   envcfg.EnvDefault("OPENAI_API_KEY", ""),
		OpenAIModel: envcfg.EnvDefault("OPENAI_MODEL", ai.DefaultModel),

		ESURL:      envcfg.EnvDefault("ES_URL", ""),
		ESUser:     envcfg.EnvDefault("ES_USER", ""),
		ESPassword: envcfg.EnvDefault("ES_PASSWORD", ""),
		ESIndex:    envcfg.EnvDefault("ES_INDEX", "players"),

		KafkaBrokers: envcfg.CSV(envcfg.EnvDefault("KAFKA_BROKERS", "")),

		RedisAddr:     envcfg.EnvDefault("REDIS_ADDR", ""),
		RedisPassword: envcfg.EnvDefault("REDIS_PASSWORD", ""),
		RedisDB:       envcfg.EnvIntDefault("REDIS_DB", 0),

		IngestAPIURL:      envcfg.EnvDefault("INGEST_API_URL", ""),
		IngestTimeout:     envcfg.EnvDurationDefault("INGEST_FETCH_TIMEOUT", ingest.DefaultFetchTimeout),
		IngestAliasesFile: envcfg.EnvDefault("INGEST_ALIASES_FILE", ""),
	}
	if cfg.Debug && cfg.LogLevel == "info" {
		cfg.LogLevel = "debug"
	}
	return cfg
}

func (c *Config) Validate() error {
	if err := (envcfg.Required{
		"DATABASE_URL": c.DatabaseURL,
		"SECRET_KEY":   c.SecretKey,
	}).Check(); err != nil {
		return err
	}
	if len(c.SecretKey) < MinSecretLength {
		return fmt.Errorf("SECRET_KEY must be at least %d characters", MinSecretLength)
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("JWT_ALGORITHM %q is not supported", c.JWTAlgorithm)
	}
	if c.AccessTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.DBPoolSize < 1 || c.DBMaxOverflow < 0 {
		return fmt.Errorf("DB_POOL_SIZE must be positive and DB_MAX_OVERFLOW not negative")
	}
	return nil
}

// Pool sizes database/sql the way a pool of DBPoolSize plus DBMaxOverflow
// overflow connections would behave.
func (c *Config) Pool() db.Pool {
	p := db.DefaultPool()
	p.MaxOpenConns = c.DBPoolSize + c.DBMaxOverflow
	p.MaxIdleConns = c.DBPoolSize
	return p
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
