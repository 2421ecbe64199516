package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/rtc"
	"github.com/emmaarthur191/coastal-project-sub004/internal/socket"
)

// EnvPrefix prefixes every environment override, e.g. COASTAL_USER_ID.
const EnvPrefix = "COASTAL"

// SocketConfig tunes the reconnecting socket.
type SocketConfig struct {
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
	BaseDelay            time.Duration `mapstructure:"base_delay"`
	MaxDelay             time.Duration `mapstructure:"max_delay"`
	Heartbeat            time.Duration `mapstructure:"heartbeat"`
}

// Config holds runtime wiring options for building the app.
type Config struct {
	Home        string        `mapstructure:"home"`     // config directory, e.g. $HOME/.coastal
	BaseURL     string        `mapstructure:"base_url"` // backend origin, e.g. http://127.0.0.1:8080
	Token       string        `mapstructure:"token"`
	UserID      domain.UserID `mapstructure:"user_id"`
	LogLevel    string        `mapstructure:"log_level"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	AutoAnswer  bool          `mapstructure:"auto_answer"`
	STUNServers []string      `mapstructure:"stun_servers"`
	UDPPortMin  uint16        `mapstructure:"udp_port_min"`
	UDPPortMax  uint16        `mapstructure:"udp_port_max"`
	Socket      SocketConfig  `mapstructure:"socket"`

	HTTP *http.Client `mapstructure:"-"` // optional; defaults to http.DefaultClient
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("home", "")
	v.SetDefault("base_url", "http://127.0.0.1:8080")
	v.SetDefault("token", "")
	v.SetDefault("user_id", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("auto_answer", false)
	v.SetDefault("stun_servers", rtc.DefaultSTUNServers)
	v.SetDefault("udp_port_min", 0)
	v.SetDefault("udp_port_max", 0)
	v.SetDefault("socket.max_reconnect_attempts", socket.DefaultMaxReconnectAttempts)
	v.SetDefault("socket.base_delay", socket.DefaultBaseDelay)
	v.SetDefault("socket.max_delay", socket.DefaultMaxDelay)
	v.SetDefault("socket.heartbeat", socket.DefaultHeartbeatInterval)
}

// LoadConfig reads path (YAML, JSON or TOML by extension) when it is not
// empty, then applies COASTAL_* environment overrides on top of the defaults.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate reports the first missing setting needed to talk to the backend.
func (c Config) Validate() error {
	switch {
	case c.UserID == "":
		return errors.New("user_id is not set")
	case c.BaseURL == "":
		return errors.New("base_url is not set")
	}
	return nil
}

// AccessToken returns Token, or the user id when no token is configured,
// which is what the development relay accepts.
func (c Config) AccessToken() string {
	if c.Token != "" {
		return c.Token
	}
	return c.UserID.String()
}

// socketConfig converts the socket settings for one thread.
func (c Config) socketConfig(thread domain.ThreadID) socket.Config {
	return socket.Config{
		Endpoint:             socket.Endpoint{BaseURL: c.BaseURL, Thread: thread, Token: c.AccessToken()},
		MaxReconnectAttempts: c.Socket.MaxReconnectAttempts,
		BaseDelay:            c.Socket.BaseDelay,
		MaxDelay:             c.Socket.MaxDelay,
		HeartbeatInterval:    c.Socket.Heartbeat,
	}
}
