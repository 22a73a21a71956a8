package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	AppBaseURL      string
	FrontendBaseURL string

	DBDSN         string
	JWTSecret     string
	JWTExpiresMin int
	CookieSecure  bool

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RealtimeDriver string

	StorageDriver   string
	UploadDir       string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
	AvatarMaxBytes  int64

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	AutoConfirm  bool

	LogLevel  string
	LogFormat string

	GoogleClientID string
	GoogleSecret   string
	GoogleRedirect string

	StrictBookingTransitions bool
	AuthRateRPS              float64
	AuthRateBurst            int
	VerifyTokenTTL           time.Duration
	ResetTokenTTL            time.Duration
}

func Load() Config {
	return Config{
		AppName:         get("APP_NAME", "skilllink"),
		AppEnv:          get("APP_ENV", "development"),
		AppPort:         get("APP_PORT", "8080"),
		AppBaseURL:      strings.TrimRight(get("APP_BASE_URL", "http://localhost:8080"), "/"),
		FrontendBaseURL: strings.TrimRight(get("FRONTEND_BASE_URL", "http://localhost:3000"), "/"),

		DBDSN:         must("DB_DSN"),
		JWTSecret:     must("JWT_SECRET"),
		JWTExpiresMin: getInt("JWT_EXPIRES_MIN", 10080),
		CookieSecure:  getBool("COOKIE_SECURE", false),

		RedisAddr:      get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  get("REDIS_PASSWORD", ""),
		RedisDB:        getInt("REDIS_DB", 0),
		RealtimeDriver: strings.ToLower(get("REALTIME_DRIVER", "memory")),

		StorageDriver:   strings.ToLower(get("STORAGE_DRIVER", "local")),
		UploadDir:       get("UPLOAD_DIR", "./uploads"),
		S3Bucket:        get("S3_BUCKET", "avatars"),
		S3Region:        get("S3_REGION", "us-east-1"),
		S3Endpoint:      get("S3_ENDPOINT", ""),
		S3AccessKey:     get("S3_ACCESS_KEY", ""),
		S3SecretKey:     get("S3_SECRET_KEY", ""),
		S3PublicBaseURL: strings.TrimRight(get("S3_PUBLIC_BASE_URL", ""), "/"),
		AvatarMaxBytes:  int64(getInt("AVATAR_MAX_BYTES", 5<<20)),

		SMTPHost:     get("SMTP_HOST", ""),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUser:     get("SMTP_USER", ""),
		SMTPPassword: get("SMTP_PASSWORD", ""),
		MailFrom:     get("MAIL_FROM", "SkillLink <no-reply@skilllink.local>"),
		AutoConfirm:  getBool("AUTH_AUTO_CONFIRM", false),

		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "json"),

		GoogleClientID: get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:   get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect: get("GOOGLE_REDIRECT_URL", ""),

		StrictBookingTransitions: getBool("BOOKING_STRICT_TRANSITIONS", false),
		AuthRateRPS:              getFloat("AUTH_RATE_RPS", 1),
		AuthRateBurst:            getInt("AUTH_RATE_BURST", 5),
		VerifyTokenTTL:           getDuration("VERIFY_TOKEN_TTL", 24*time.Hour),
		ResetTokenTTL:            getDuration("RESET_TOKEN_TTL", time.Hour),
	}
}

// Validate checks values that Load cannot reject on its own.
func (c Config) Validate() error {
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 bytes")
	}
	switch c.RealtimeDriver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown REALTIME_DRIVER %q", c.RealtimeDriver)
	}
	switch c.StorageDriver {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("STORAGE_DRIVER=s3 requires S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTExpiresMin <= 0 {
		return fmt.Errorf("JWT_EXPIRES_MIN must be positive")
	}
	return nil
}

// MailEnabled reports whether SMTP delivery is configured.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

func getInt(k string, def int) int {
	v, err := strconv.Atoi(get(k, ""))
	if err != nil {
		return def
	}
	return v
}

func getFloat(k string, def float64) float64 {
	v, err := strconv.ParseFloat(get(k, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func getBool(k string, def bool) bool {
	v, err := strconv.ParseBool(get(k, ""))
	if err != nil {
		return def
	}
	return v
}

func getDuration(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(get(k, ""))
	if err != nil {
		return def
	}
	return v
}
