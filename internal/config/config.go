package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Calendar  CalendarConfig
	Queue     QueueConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type StoreConfig struct {
	Driver string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether Redis-backed cache, limiter, idempotency and bus are used.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxConns int32
}

// DSN escapes credentials, so passwords may contain '@', '/' or ':'.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

type CalendarConfig struct {
	Location      *time.Location
	OpenHour      int
	CloseHour     int
	Slots         []string
	Departments   []string
	CheckInterval time.Duration
}

type QueueConfig struct {
	StaffRecipientID   string
	MaxRetries         int
	PositionAlertDepth int
	BookingRateLimit   int
	BookingRateWindow  time.Duration
	IdempotencyTTL     time.Duration
	ViewCacheTTL       time.Duration
}

type TelemetryConfig struct {
	Endpoint string
	Insecure bool
}

// CalendarFile is the optional TOML override for the calendar.
type CalendarFile struct {
	OpenHour    *int     `toml:"open_hour"`
	CloseHour   *int     `toml:"close_hour"`
	Slots       []string `toml:"slots"`
	Departments []string `toml:"departments"`
}

type Options struct {
	// EnvFile is loaded before reading the environment. A missing default
	// ".env" is ignored; a missing explicit file is an error.
	EnvFile string
	// CalendarFile takes precedence over CALENDAR_FILE.
	CalendarFile string
}

func New(opts Options) (*Config, error) {
	const op = "config.New"

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("%s: load env file: %w", op, err)
		}
	} else {
		_ = godotenv.Load()
	}

	var errs []error

	serverPort, err := intEnv("SERVER_PORT", 8080)
	errs = append(errs, err)

	serverCfg := ServerConfig{
		Host: stringEnv("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	storeCfg := StoreConfig{Driver: strings.ToLower(stringEnv("STORE_DRIVER", DriverPostgres))}

	var postgresCfg PostgresConfig

	switch storeCfg.Driver {
	case DriverMemory:
	case DriverPostgres:
		postgresCfg, err = postgresFromEnv()
		errs = append(errs, err)
	default:
		errs = append(errs, fmt.Errorf("invalid STORE_DRIVER %q", storeCfg.Driver))
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	errs = append(errs, err)

	redisCfg := RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	calendarCfg, err := calendarFromEnv()
	errs = append(errs, err)

	calendarFile := opts.CalendarFile
	if calendarFile == "" {
		calendarFile = os.Getenv("CALENDAR_FILE")
	}

	if calendarFile != "" {
		errs = append(errs, calendarCfg.applyFile(calendarFile))
	}

	queueCfg, err := queueFromEnv()
	errs = append(errs, err)

	insecure, err := boolEnv("OTEL_EXPORTER_OTLP_INSECURE", false)
	errs = append(errs, err)

	telemetryCfg := TelemetryConfig{
		Endpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Insecure: insecure,
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server:    serverCfg,
		Store:     storeCfg,
		Postgres:  postgresCfg,
		Redis:     redisCfg,
		Calendar:  calendarCfg,
		Queue:     queueCfg,
		Telemetry: telemetryCfg,
	}, nil
}

func postgresFromEnv() (PostgresConfig, error) {
	var errs []error

	port, err := intEnv("POSTGRES_PORT", 5432)
	errs = append(errs, err)

	maxConns, err := intEnv("POSTGRES_MAX_CONNS", 0)
	errs = append(errs, err)

	cfg := PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Name:     os.Getenv("POSTGRES_DB"),
		Host:     stringEnv("POSTGRES_HOST", "localhost"),
		Port:     port,
		SSLMode:  stringEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns: int32(maxConns),
	}

	if cfg.User == "" {
		errs = append(errs, errors.New("missing POSTGRES_USER"))
	}

	if cfg.Password == "" {
		errs = append(errs, errors.New("missing POSTGRES_PASSWORD"))
	}

	if cfg.Name == "" {
		errs = append(errs, errors.New("missing POSTGRES_DB"))
	}

	return cfg, errors.Join(errs...)
}

func calendarFromEnv() (CalendarConfig, error) {
	var errs []error

	loc, err := time.LoadLocation(stringEnv("TIMEZONE", "Africa/Johannesburg"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE: %w", err))
	}

	open, err := intEnv("BOOKING_OPEN_HOUR", 8)
	errs = append(errs, err)

	closing, err := intEnv("BOOKING_CLOSE_HOUR", 16)
	errs = append(errs, err)

	interval, err := durationEnv("WINDOW_CHECK_INTERVAL", time.Minute)
	errs = append(errs, err)

	return CalendarConfig{
		Location:      loc,
		OpenHour:      open,
		CloseHour:     closing,
		CheckInterval: interval,
	}, errors.Join(errs...)
}

func (c *CalendarConfig) applyFile(path string) error {
	var f CalendarFile

	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return fmt.Errorf("calendar file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("calendar file %s: unknown keys %v", path, undecoded)
	}

	if f.OpenHour != nil {
		c.OpenHour = *f.OpenHour
	}

	if f.CloseHour != nil {
		c.CloseHour = *f.CloseHour
	}

	if len(f.Slots) > 0 {
		c.Slots = f.Slots
	}

	if len(f.Departments) > 0 {
		c.Departments = f.Departments
	}

	return nil
}

func queueFromEnv() (QueueConfig, error) {
	var errs []error

	retries, err := intEnv("ALLOCATION_MAX_RETRIES", 3)
	errs = append(errs, err)

	depth, err := intEnv("POSITION_ALERT_DEPTH", 3)
	errs = append(errs, err)

	limit, err := intEnv("BOOKING_RATE_LIMIT", 10)
	errs = append(errs, err)

	window, err := durationEnv("BOOKING_RATE_WINDOW", time.Minute)
	errs = append(errs, err)

	idemTTL, err := durationEnv("IDEMPOTENCY_TTL", 2*time.Hour)
	errs = append(errs, err)

	viewTTL, err := durationEnv("VIEW_CACHE_TTL", 30*time.Second)
	errs = append(errs, err)

	if retries < 0 {
		errs = append(errs, errors.New("ALLOCATION_MAX_RETRIES must not be negative"))
	}

	if depth < 0 {
		errs = append(errs, errors.New("POSITION_ALERT_DEPTH must not be negative"))
	}

	return QueueConfig{
		StaffRecipientID:   stringEnv("STAFF_RECIPIENT_ID", "staff"),
		MaxRetries:         retries,
		PositionAlertDepth: depth,
		BookingRateLimit:   limit,
		BookingRateWindow:  window,
		IdempotencyTTL:     idemTTL,
		ViewCacheTTL:       viewTTL,
	}, errors.Join(errs...)
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}
