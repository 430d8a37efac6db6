package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Debug     bool      `yaml:"debug"`
	Limiter   Limiter   `yaml:"limiter"`
	AppSecret string    `yaml:"app_secret" env:"APP_SECRET" env-required:"true"`
	Server    Server    `yaml:"server"`
	Storage   Storage   `yaml:"storage"`
	Broadcast Broadcast `yaml:"broadcast"`
	Provider  Provider  `yaml:"provider"`
	Catalog   Catalog   `yaml:"catalog"`
	Session   Session   `yaml:"session"`
	Tasks     Tasks     `yaml:"tasks"`
}

type Limiter struct {
	Enabled bool    `yaml:"enabled"`
	Rps     float64 `yaml:"rps" env-default:"20"`
	Burst   int     `yaml:"burst" env-default:"5"`
}

type Server struct {
	Port string `yaml:"port" env-default:"8000"`
	Host string `yaml:"host" env-default:"localhost"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"2s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"2s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

// Storage selects the key-value backend. The file and memory drivers need no
// external service; postgres needs a dsn.
type Storage struct {
	Driver          string        `yaml:"driver" env-default:"file"`
	Dir             string        `yaml:"dir" env-default:"./data"`
	Dsn             string        `yaml:"dsn" env:"STORAGE_DSN"`
	MaxConns        int           `yaml:"max_conns" env-default:"25"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env-default:"10m"`
}

type Broadcast struct {
	Enabled       bool   `yaml:"enabled"`
	RedisAddr     string `yaml:"redis_addr" env-default:"localhost:6379"`
	ChannelPrefix string `yaml:"channel_prefix" env-default:"reelpass"`
}

type Provider struct {
	Endpoint     string        `yaml:"endpoint"`
	Timeout      time.Duration `yaml:"timeout" env-default:"5s"`
	PollInterval time.Duration `yaml:"poll_interval" env-default:"5s"`
}

type Catalog struct {
	BaseURL      string        `yaml:"base_url" env-default:"https://api.themoviedb.org/3"`
	ImageBaseURL string        `yaml:"image_base_url" env-default:"https://image.tmdb.org/t/p"`
	Token        string        `yaml:"token" env:"CATALOG_TOKEN" env-required:"true"`
	Language     string        `yaml:"language" env-default:"en-US"`
	Timeout      time.Duration `yaml:"timeout" env-default:"10s"`
}

type Session struct {
	CookieTTL     time.Duration `yaml:"cookie_ttl" env-default:"720h"`
	RedirectDelay time.Duration `yaml:"redirect_delay" env-default:"500ms"`
}

type Tasks struct {
	MaxWorkers   int `yaml:"max_workers" env-default:"4"`
	MaxQueueSize int `yaml:"max_queue_size" env-default:"64"`
}

func MustLoad(configPath string) *Config {
	var cfg Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic(fmt.Errorf("config file %s not found", configPath))
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic(err)
	}

	return &cfg
}
