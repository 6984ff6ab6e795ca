package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	Env             string
	ShutdownTimeout time.Duration
	Model           ModelConfig
	Profile         ProfileConfig
	Trace           TraceConfig
}

type ModelConfig struct {
	// Provider and ID override the registry's default model.
	Provider     string
	ID           string
	RegistryFile string
	// Fake answers every call with canned replies; local runs only.
	Fake            bool
	ClientCacheSize int
}

type ProfileConfig struct {
	PostgresDSN string
	SeedFile    string
}

type TraceConfig struct {
	Sink      string
	Dir       string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Load reads .env (if present), command-line flags and the environment.
// Environment variables win over flags.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load without .env handling, for explicit argument lists.
func LoadArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("compass", flag.ContinueOnError)
	port := fs.String("port", ":8081", "server port")
	shutdown := fs.Duration("shutdown-timeout", 5*time.Second, "graceful shutdown timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := strings.TrimSpace(os.Getenv("PORT")); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}
	local := strings.EqualFold(env, "local")

	cacheSize := 32
	if raw := strings.TrimSpace(os.Getenv("MODEL_CLIENT_CACHE_SIZE")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MODEL_CLIENT_CACHE_SIZE: want a positive integer, got %q", raw)
		}
		cacheSize = n
	}

	fake := envBool("LLM_FAKE", false)
	if fake && !local {
		return nil, fmt.Errorf("LLM_FAKE is only allowed when APP_ENV=local (got %q)", env)
	}

	return &Config{
		Port:            *port,
		Env:             env,
		ShutdownTimeout: *shutdown,
		Model: ModelConfig{
			Provider:        strings.TrimSpace(os.Getenv("MODEL_PROVIDER")),
			ID:              strings.TrimSpace(os.Getenv("MODEL_ID")),
			RegistryFile:    strings.TrimSpace(os.Getenv("MODEL_REGISTRY_FILE")),
			Fake:            fake,
			ClientCacheSize: cacheSize,
		},
		Profile: ProfileConfig{
			PostgresDSN: strings.TrimSpace(os.Getenv("PROFILE_STORE_PG_DSN")),
			SeedFile:    strings.TrimSpace(os.Getenv("PROFILE_SEED_FILE")),
		},
		Trace: loadTraceConfig(local),
	}, nil
}

func loadTraceConfig(local bool) TraceConfig {
	if local {
		return localTraceConfig()
	}
	return TraceConfig{
		Sink:      strings.TrimSpace(os.Getenv("TRACE_SINK")),
		Dir:       strings.TrimSpace(os.Getenv("TRACE_DIR")),
		Endpoint:  strings.TrimSpace(os.Getenv("TRACE_S3_ENDPOINT")),
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_S3_REGION")), "us-east-1"),
		AccessKey: strings.TrimSpace(os.Getenv("TRACE_S3_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("TRACE_S3_SECRET_KEY")),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("TRACE_S3_BUCKET")), "compass-traces"),
		Prefix:    strings.TrimSpace(os.Getenv("TRACE_S3_PREFIX")),
		UseSSL:    envBool("TRACE_S3_USE_SSL", true),
	}
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
