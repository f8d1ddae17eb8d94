package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (local; default), TEST, QA, PROD
		Build    string
		AppName  string

		FrontendBaseURL string
		RollbarToken    string

		Server    ServerConfig
		Database  DatabaseConfig
		Generator GeneratorConfig
	}

	ServerConfig struct {
		Host            string
		APIAddress      string
		DebugAddress    string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	GeneratorConfig struct {
		APIKey  string
		Model   string
		Timeout time.Duration
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Darasa")
	conf.SetDefault("build", "dev")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.apiAddress", ":8000")
	conf.SetDefault("server.debugAddress", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.name", "darasa")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("generator.model", "gemini-flash-latest")
	conf.SetDefault("generator.timeout", 60*time.Second)

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()

	// the generator key is provisioned under its upstream name, unprefixed;
	// a ${ENV}-prefixed override still wins via AutomaticEnv
	_ = conf.BindEnv("gemini_api_key", "GEMINI_API_KEY")

	return &Config{
		Debug:           conf.GetBool("debug"),
		TestMode:        conf.GetBool("testMode"),
		Env:             env,
		Build:           conf.GetString("build"),
		AppName:         conf.GetString("appName"),
		FrontendBaseURL: conf.GetString("frontendBaseURL"),
		RollbarToken:    conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			APIAddress:      conf.GetString("server.apiAddress"),
			DebugAddress:    conf.GetString("server.debugAddress"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Generator: GeneratorConfig{
			APIKey:  conf.GetString("gemini_api_key"),
			Model:   conf.GetString("generator.model"),
			Timeout: conf.GetDuration("generator.timeout"),
		},
	}
}
