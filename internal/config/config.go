package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the console settings. Values come from, in increasing order of
// precedence: defaults, the YAML file named by FLEET_CONFIG, a .env file, and
// the process environment.
type Config struct {
	APIBaseURL          string        `yaml:"api_base_url"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	SimTick             time.Duration `yaml:"sim_tick"`
	LoginRedirectDelay  time.Duration `yaml:"login_redirect_delay"`
	SessionDir          string        `yaml:"session_dir"`
	Port                string        `yaml:"port"`
	LoginRateLimit      int           `yaml:"login_rate_limit"`
	LoginRateWindow     time.Duration `yaml:"login_rate_window"`
	LogLevel            string        `yaml:"log_level"`
	LogFormat           string        `yaml:"log_format"`
	MQTTBroker          string        `yaml:"mqtt_broker"`
	MQTTTopic           string        `yaml:"mqtt_topic"`
	NATSURL             string        `yaml:"nats_url"`
	NATSSubject         string        `yaml:"nats_subject"`
	MongoURI            string        `yaml:"mongo_uri"`
	MongoDB             string        `yaml:"mongo_db"`
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		APIBaseURL:          "http://localhost:8083/api",
		RequestTimeout:      10 * time.Second,
		SimTick:             5 * time.Second,
		LoginRedirectDelay:  2 * time.Second,
		SessionDir:          defaultSessionDir(),
		Port:                "8090",
		LoginRateLimit:      10,
		LoginRateWindow:     time.Minute,
		LogLevel:            "info",
		LogFormat:           "text",
		MQTTTopic:           "fleet/telemetry",
		NATSSubject:         "fleet.telemetry",
		MongoDB:             "fleet",
		ShutdownGracePeriod: 5 * time.Second,
	}
}

func defaultSessionDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".fleet-console/session"
	}
	return dir + "/fleet-console/session"
}

// Load builds the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("FLEET_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to read .env file")
	}

	if err := cfg.mergeEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("API_BASE_URL", &c.APIBaseURL)
	str("SESSION_DIR", &c.SessionDir)
	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("MQTT_BROKER", &c.MQTTBroker)
	str("MQTT_TOPIC", &c.MQTTTopic)
	str("NATS_URL", &c.NATSURL)
	str("NATS_SUBJECT", &c.NATSSubject)
	str("MONGO_URI", &c.MongoURI)
	str("MONGO_DB", &c.MongoDB)

	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("SIM_TICK_SECONDS must be a positive integer, got %q", v)
		}
		c.SimTick = time.Duration(n) * time.Second
	}
	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOGIN_RATE_LIMIT: %w", err)
		}
		c.LoginRateLimit = n
	}

	durations := map[string]*time.Duration{
		"REQUEST_TIMEOUT":       &c.RequestTimeout,
		"LOGIN_REDIRECT_DELAY":  &c.LoginRedirectDelay,
		"LOGIN_RATE_WINDOW":     &c.LoginRateWindow,
		"SHUTDOWN_GRACE_PERIOD": &c.ShutdownGracePeriod,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

// Validate rejects settings the console cannot run with.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api base url must be http(s), got %q", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.SimTick <= 0 {
		return fmt.Errorf("simulation tick must be positive")
	}
	if c.LoginRedirectDelay < 0 {
		return fmt.Errorf("login redirect delay must not be negative")
	}
	return nil
}

// ConfigureLogging applies the log level and format to the standard logrus logger.
func (c Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("log_level", c.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
