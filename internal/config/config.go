package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/b0ase/path402/apps/kaspa-mcp/internal/kaspa"
	"gopkg.in/yaml.v3"
)

const (
	TransportJSONRPC = "jsonrpc"
	TransportGRPC    = "grpc"

	MCPStdio = "stdio"
	MCPSSE   = "sse"
	MCPHTTP  = "http"
)

type RPCConfig struct {
	URL       string        `yaml:"url"`
	Transport string        `yaml:"transport"` // "jsonrpc" or "grpc"
	Timeout   time.Duration `yaml:"timeout"`
}

type KasFYIConfig struct {
	APIKey    string  `yaml:"api_key"`
	BaseURL   string  `yaml:"base_url"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second
}

type MCPConfig struct {
	Transport string `yaml:"transport"` // "stdio", "sse" or "http"
	Bind      string `yaml:"bind"`
	Port      int    `yaml:"port"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

type Config struct {
	RPC    RPCConfig    `yaml:"rpc"`
	KasFYI KasFYIConfig `yaml:"kasfyi"`
	MCP    MCPConfig    `yaml:"mcp"`
	Log    LogConfig    `yaml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		RPC: RPCConfig{
			URL:       "http://localhost:16110",
			Transport: TransportJSONRPC,
			Timeout:   kaspa.DefaultTimeout,
		},
		KasFYI: KasFYIConfig{
			BaseURL:   "https://api.kas.fyi",
			RateLimit: 5,
		},
		MCP: MCPConfig{
			Transport: MCPStdio,
			Bind:      "127.0.0.1",
			Port:      8000,
		},
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kaspa-mcp", "config.yaml")
}

// Load reads a YAML config file and merges it with defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file: defaults + env overlay
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFromBytes parses YAML config from bytes and merges with defaults.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables on top of config values.
// Unparsable numeric values are logged and ignored.
func (c *Config) applyEnv() {
	if v := os.Getenv("KASPA_RPC_URL"); v != "" {
		c.RPC.URL = v
	}
	if v := os.Getenv("KASPA_RPC_TRANSPORT"); v != "" {
		c.RPC.Transport = strings.ToLower(v)
	}
	if v := os.Getenv("KASPA_RPC_TIMEOUT"); v != "" {
		if d, err := parseSeconds(v); err == nil {
			c.RPC.Timeout = d
		} else {
			log.Printf("[config] ignoring KASPA_RPC_TIMEOUT=%q: %v", v, err)
		}
	}
	if v := os.Getenv("KASFYI_API_KEY"); v != "" {
		c.KasFYI.APIKey = v
	}
	if v := os.Getenv("KASFYI_BASE_URL"); v != "" {
		c.KasFYI.BaseURL = v
	}
	if v := os.Getenv("KASFYI_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.KasFYI.RateLimit = f
		} else {
			log.Printf("[config] ignoring KASFYI_RATE_LIMIT=%q: %v", v, err)
		}
	}
	if v := os.Getenv("DEBUG"); v != "" {
		c.Log.Debug = truthy(v)
	}
	if v := os.Getenv("MCP_TRANSPORT"); v != "" {
		c.MCP.Transport = strings.ToLower(v)
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.MCP.Port = p
		} else {
			log.Printf("[config] ignoring PORT=%q: %v", v, err)
		}
	}
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch c.RPC.Transport {
	case TransportJSONRPC, TransportGRPC:
	default:
		return &kaspa.ConfigurationError{Setting: "rpc.transport", Message: fmt.Sprintf("unknown transport %q", c.RPC.Transport)}
	}
	if _, err := kaspa.ParseEndpoint(c.RPC.URL); err != nil {
		return &kaspa.ConfigurationError{Setting: "rpc.url", Message: err.Error()}
	}
	if c.RPC.Timeout <= 0 {
		return &kaspa.ConfigurationError{Setting: "rpc.timeout", Message: "must be positive"}
	}
	if c.KasFYI.RateLimit <= 0 {
		return &kaspa.ConfigurationError{Setting: "kasfyi.rate_limit", Message: "must be positive"}
	}
	switch c.MCP.Transport {
	case MCPStdio, MCPSSE, MCPHTTP:
	default:
		return &kaspa.ConfigurationError{Setting: "mcp.transport", Message: fmt.Sprintf("unknown transport %q", c.MCP.Transport)}
	}
	if c.MCP.Port < 0 || c.MCP.Port > 65535 {
		return &kaspa.ConfigurationError{Setting: "mcp.port", Message: fmt.Sprintf("out of range: %d", c.MCP.Port)}
	}
	return nil
}

// parseSeconds accepts either a Go duration ("90s") or a bare number of
// seconds ("90", "2.5").
func parseSeconds(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(f * float64(time.Second)), nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
