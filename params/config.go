package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Server struct {
	Port       int
	MaxClients int
	// DataDir holds the snapshot, the audit logs and the archive store.
	DataDir          string
	SnapshotInterval time.Duration
	APIAddr          string
	LogFile          string
}

type Config struct {
	Server Server
}

func Default() Config {
	return Config{
		Server: Server{
			Port:             5001,
			MaxClients:       10,
			DataDir:          "data",
			SnapshotInterval: 30 * time.Second,
			APIAddr:          ":8080",
			LogFile:          "data/server.log",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("BORSA_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("BORSA_MAX_CLIENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MaxClients = n
		}
	}
	if v := os.Getenv("BORSA_DATA_DIR"); v != "" {
		cfg.Server.DataDir = v
	}
	if v := os.Getenv("BORSA_SNAPSHOT_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Server.SnapshotInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("BORSA_API_ADDR"); v != "" {
		cfg.Server.APIAddr = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Server.LogFile = v
	}

	return cfg
}
