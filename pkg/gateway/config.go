package gateway

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Jettucis/play-dl/pkg/proxy"
	"github.com/Jettucis/play-dl/pkg/youtube"
)

// Config represents the configuration for gateway initialization.
type Config struct {
	// OutputDir is the folder for saving files (defaults to ./downloads).
	OutputDir string
	// TimeoutSec bounds one lookup in seconds (defaults to 60).
	TimeoutSec int
	// Debug enables verbose logging.
	Debug bool
	// ShowProgress enables the progress bar in the console (for CLI usage).
	ShowProgress bool

	// Proxies are tunneled through for every page fetch; empty goes
	// direct.
	Proxies []proxy.Endpoint
	// Cookies seeds the cookie jar.
	Cookies map[string]string

	// RedisURL enables the shared cache tier; empty caches in-process
	// only.
	RedisURL string
	// CacheTTL is how long lookups stay cached (defaults to 15m).
	CacheTTL time.Duration

	// Decipher resolves protected format URLs; nil leaves them ciphered.
	Decipher youtube.DecipherFunc
}

// FileConfig is the on-disk YAML shape of Config.
type FileConfig struct {
	OutputDir string            `yaml:"output_dir"`
	Timeout   int               `yaml:"timeout"`
	Debug     bool              `yaml:"debug"`
	Proxies   []string          `yaml:"proxies"`
	Cookies   map[string]string `yaml:"cookies"`

	Redis struct {
		URL string `yaml:"url"`
		TTL int    `yaml:"ttl"`
	} `yaml:"redis"`
}

// LoadFile reads a YAML config file into a Config. The PLAYDL_REDIS_URL
// environment variable overrides the file's redis URL.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Config{
		OutputDir:  fc.OutputDir,
		TimeoutSec: fc.Timeout,
		Debug:      fc.Debug,
		Cookies:    fc.Cookies,
		RedisURL:   fc.Redis.URL,
		CacheTTL:   time.Duration(fc.Redis.TTL) * time.Second,
	}

	if url := os.Getenv("PLAYDL_REDIS_URL"); url != "" {
		cfg.RedisURL = url
	}

	for _, raw := range fc.Proxies {
		ep, err := proxy.ParseEndpoint(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config proxy %q: %w", raw, err)
		}
		cfg.Proxies = append(cfg.Proxies, ep)
	}

	return cfg, nil
}
