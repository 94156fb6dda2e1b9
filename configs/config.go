package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type R2 struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
}

type Facebook struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type Graph struct {
	Version       string
	BaseURL       string
	UploadBaseURL string
	RatePerSecond float64
	Timeout       time.Duration
}

type Scheduler struct {
	Spec             string
	TokenCheckSpec   string
	ClaimTTL         time.Duration
	RetryMaxAttempts int
	RetryBackoff     time.Duration
	RetryBackoffMax  time.Duration
	TickLease        time.Duration
}

type Config struct {
	AppEnv           string
	ListenAddr       string
	PostgresURI      string
	RedisURI         string
	FrontendURL      string
	SecretKey        string
	EncryptionKey    string
	CookieName       string
	AsynqConcurrency int
	TranscodeHosts   []string
	Facebook         Facebook
	Graph            Graph
	R2               R2
	Scheduler        Scheduler
}

func LoadConfig() *Config {
	return &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		ListenAddr:       getEnv("LISTEN_ADDR", ":3000"),
		PostgresURI:      getEnv("POSTGRES_URI", ""),
		RedisURI:         getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:        getEnv("SECRET_KEY", ""),
		EncryptionKey:    getEnv("ENCRYPTION_KEY", ""),
		CookieName:       getEnv("COOKIE_NAME", "socialflow_session"),
		AsynqConcurrency: getInt("ASYNQ_CONCURRENCY", 5),
		TranscodeHosts:   getList("TRANSCODE_HOSTS", []string{"res.cloudinary.com"}),
		Facebook: Facebook{
			ClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
			ClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("FACEBOOK_REDIRECT_URI", ""),
		},
		Graph: Graph{
			Version:       getEnv("GRAPH_API_VERSION", "v19.0"),
			BaseURL:       getEnv("GRAPH_BASE_URL", "https://graph.facebook.com"),
			UploadBaseURL: getEnv("GRAPH_UPLOAD_BASE_URL", "https://rupload.facebook.com"),
			RatePerSecond: getFloat("GRAPH_RATE_PER_SECOND", 10),
			Timeout:       getDuration("GRAPH_TIMEOUT", 5*time.Minute),
		},
		R2: R2{
			AccountID:     getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:     getEnv("R2_ACCESS_KEY", ""),
			SecretKey:     getEnv("R2_SECRET_KEY", ""),
			BucketName:    getEnv("R2_BUCKET_NAME", ""),
			PublicBaseURL: getEnv("R2_PUBLIC_BASE_URL", ""),
		},
		Scheduler: Scheduler{
			Spec:             getEnv("SCHEDULER_SPEC", "@every 1m"),
			TokenCheckSpec:   getEnv("TOKEN_CHECK_SPEC", "0 0 * * *"),
			ClaimTTL:         getDuration("CLAIM_TTL", 15*time.Minute),
			RetryMaxAttempts: getInt("RETRY_MAX_ATTEMPTS", 0),
			RetryBackoff:     getDuration("RETRY_BACKOFF", 0),
			RetryBackoffMax:  getDuration("RETRY_BACKOFF_MAX", time.Hour),
			TickLease:        getDuration("SCHEDULER_TICK_LEASE", 0),
		},
	}
}

// MinClaimTTL bounds how short a unit claim may be; it is renewed every third of its ttl.
const MinClaimTTL = 30 * time.Second

// Validate rejects scheduler settings under which an in-flight publish could lose its
// claim to another instance.
func (c *Config) Validate() error {
	s := c.Scheduler
	if s.ClaimTTL < MinClaimTTL {
		return fmt.Errorf("CLAIM_TTL %v is shorter than %v", s.ClaimTTL, MinClaimTTL)
	}
	if c.Graph.Timeout > 0 && s.ClaimTTL <= c.Graph.Timeout {
		return fmt.Errorf("CLAIM_TTL %v must be longer than GRAPH_TIMEOUT %v", s.ClaimTTL, c.Graph.Timeout)
	}
	if s.RetryBackoff < 0 || s.RetryBackoffMax < 0 {
		return fmt.Errorf("RETRY_BACKOFF and RETRY_BACKOFF_MAX must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func getFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
