package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "SEEKCHAT"

type Config struct {
	BaseURL     string
	CookiesFile string
	HeadersFile string
	LogDir      string

	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration

	BridgeAddr    string
	BridgeSecret  string
	TranscriptDSN string

	LoginURL     string
	LoginCookie  string
	LoginTimeout time.Duration

	RenderStyle string
	WordWrap    int
}

// CompletionURL is the streaming chat endpoint.
func (c Config) CompletionURL() string {
	return c.BaseURL + "/api/v0/chat/completion"
}

// SessionURL is the endpoint that opens a new remote conversation.
func (c Config) SessionURL() string {
	return c.BaseURL + "/api/v0/chat_session/create"
}

// New returns a viper instance with every key defaulted and bound to
// SEEKCHAT_* environment variables. Callers may bind flags onto it before
// calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("base_url", "https://chat.deepseek.com")
	v.SetDefault("cookies_file", "cookies.json")
	v.SetDefault("headers_file", "deepseek_headers.yml")
	v.SetDefault("log_dir", "./logs")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("retry_attempts", 3)
	v.SetDefault("retry_delay", 2*time.Second)
	v.SetDefault("bridge_addr", "127.0.0.1:8000")
	v.SetDefault("bridge_secret", "")
	v.SetDefault("transcript_dsn", "")
	v.SetDefault("login_url", "https://chat.deepseek.com/sign_in")
	v.SetDefault("login_cookie", "ds_session_id")
	v.SetDefault("login_timeout", 5*time.Minute)
	v.SetDefault("render_style", "auto")
	v.SetDefault("word_wrap", 80)
	return v
}

// Load reads .env (when present) and resolves the configuration from v.
func Load(v *viper.Viper) Config {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	return Config{
		BaseURL:        v.GetString("base_url"),
		CookiesFile:    v.GetString("cookies_file"),
		HeadersFile:    v.GetString("headers_file"),
		LogDir:         v.GetString("log_dir"),
		RequestTimeout: v.GetDuration("request_timeout"),
		RetryAttempts:  v.GetInt("retry_attempts"),
		RetryDelay:     v.GetDuration("retry_delay"),
		BridgeAddr:     v.GetString("bridge_addr"),
		BridgeSecret:   v.GetString("bridge_secret"),
		TranscriptDSN:  v.GetString("transcript_dsn"),
		LoginURL:       v.GetString("login_url"),
		LoginCookie:    v.GetString("login_cookie"),
		LoginTimeout:   v.GetDuration("login_timeout"),
		RenderStyle:    v.GetString("render_style"),
		WordWrap:       v.GetInt("word_wrap"),
	}
}

// LoadConfig is Load over a fresh New().
func LoadConfig() Config {
	return Load(New())
}
