package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Simulation Simulation `yaml:"simulation"`
}

type Storage struct {
	DSN string `yaml:"dsn" env:"STORAGE_DSN" env-required:"true"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Simulation holds the default table settings applied when a request omits
// them.
type Simulation struct {
	StartingBankroll int `yaml:"starting_bankroll" env-default:"1000"`
	TableMin         int `yaml:"table_min" env-default:"1"`
	TableMax         int `yaml:"table_max" env-default:"500"`
	SpinsPerRun      int `yaml:"spins_per_run" env-default:"200"`
	Runs             int `yaml:"runs" env-default:"100"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}
