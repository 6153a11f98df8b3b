package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

const (
	CleanupRetain = "retain"
	CleanupRemove = "remove"
)

type Config struct {
	Port     string
	DBDriver string // sqlite | mysql
	DBDSN    string

	PublicDir     string // served under /public
	UploadDir     string
	AssetMaxBytes int64
	AssetSniff    bool
	AssetCleanup  string // retain | remove

	CORSOrigins     string
	RateLimitPerMin int
	LogFile         string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over .env values.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	cfg := Config{
		Port:            env("PORT", "5000"),
		DBDriver:        strings.ToLower(env("DB_DRIVER", "sqlite")),
		DBDSN:           os.Getenv("DB_DSN"),
		PublicDir:       env("PUBLIC_DIR", "public"),
		UploadDir:       env("UPLOAD_DIR", "public/uploads"),
		AssetMaxBytes:   int64(envInt("ASSET_MAX_BYTES", 5<<20)),
		AssetSniff:      envBool("ASSET_SNIFF", true),
		AssetCleanup:    strings.ToLower(env("ASSET_CLEANUP", CleanupRetain)),
		CORSOrigins:     env("CORS_ORIGINS", "*"),
		RateLimitPerMin: envInt("RATE_LIMIT_PER_MIN", 120),
		LogFile:         os.Getenv("LOG_FILE"),
	}
	if cfg.AssetCleanup != CleanupRemove {
		cfg.AssetCleanup = CleanupRetain
	}
	if cfg.DBDSN == "" {
		switch cfg.DBDriver {
		case "mysql":
			cfg.DBDSN = mysqlDSNFromParts()
		default:
			cfg.DBDSN = "storefront.db" // sqlite file in project root
		}
	}

	return cfg
}

// LogFields is the non-secret part of the config, logged once the log
// sink is in place.
func (c Config) LogFields() map[string]any {
	return map[string]any{
		"port":          c.Port,
		"db_driver":     c.DBDriver,
		"upload_dir":    c.UploadDir,
		"asset_max":     c.AssetMaxBytes,
		"asset_sniff":   c.AssetSniff,
		"asset_cleanup": c.AssetCleanup,
		"log_file":      c.LogFile,
	}
}

// mysqlDSNFromParts builds a DSN from DB_HOST, DB_USER, DB_PASSWORD and DB_NAME.
func mysqlDSNFromParts() string {
	mc := mysql.NewConfig()
	mc.User = os.Getenv("DB_USER")
	mc.Passwd = os.Getenv("DB_PASSWORD")
	mc.Net = "tcp"
	mc.Addr = env("DB_HOST", "127.0.0.1")
	if !strings.Contains(mc.Addr, ":") {
		mc.Addr += ":3306"
	}
	mc.DBName = os.Getenv("DB_NAME")
	return mc.FormatDSN()
}

func env(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
