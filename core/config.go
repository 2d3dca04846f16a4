package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env                  string
		Debug                bool
		TestMode             bool
		AppName              string
		Build                string
		SecretKey            string
		DefaultFromEmail     string
		FrontendBaseURL      string
		PasswordResetTimeout time.Duration
		SendgridApiKey       string
		RollbarToken         string
		Server               ServerConfig
		Database             DatabaseConfig
		Redis                RedisConfig
		Uploads              UploadsConfig
	}

	ServerConfig struct {
		Host              string
		Port              string
		DebugHost         string
		ShutdownTimeout   time.Duration
		SessionCookieName string
		SessionTTL        time.Duration
		DisableReqLogs    bool
	}

	DatabaseConfig struct {
		Engine        string // memory, postgres, mongo
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
		MongoURI      string
	}

	RedisConfig struct {
		Addr     string // empty: sessions are kept in memory
		Password string
		DB       int
	}

	UploadsConfig struct {
		Backend     string // local, s3
		Dir         string
		S3Bucket    string
		S3Region    string
		S3Endpoint  string
		S3AccessKey string
		S3SecretKey string
	}
)

func (c ServerConfig) Address() string { return net.JoinHostPort(c.Host, c.Port) }

func (c DatabaseConfig) Address() string { return net.JoinHostPort(c.Host, c.Port) }

// NewConfig loads the Config of the environment set in $ENV: DEV (local; default), TEST, QA, PROD.
// Values are read from the environment (prefixed with the env name, e.g. DEV_SECRETKEY)
// after loading config/.env.<env> if it exists.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "E-LEARN")
	conf.SetDefault("build", "develop")
	conf.SetDefault("secretKey", "4x&h9u!k2(z@kq=v$+ej7p0yt_3l#mrw8d^c6sn-1a5gbfo")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("frontendBaseURL", "http://localhost:8000")
	conf.SetDefault("passwordResetTimeout", time.Hour)
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverPort", "8000")
	conf.SetDefault("serverDebugHost", "localhost:4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("serverSessionCookieName", "elearn_session")
	conf.SetDefault("serverSessionTTL", 24*time.Hour)
	conf.SetDefault("serverDisableReqLogs", false)

	conf.SetDefault("databaseEngine", "memory")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseUser", "elearn")
	conf.SetDefault("databasePassword", "elearn")
	conf.SetDefault("databaseAdminUser", "postgres")
	conf.SetDefault("databaseAdminPassword", "")
	conf.SetDefault("databaseName", "elearn")
	conf.SetDefault("databaseDisableTLS", true)
	conf.SetDefault("databaseMongoURI", "mongodb://localhost:27017")

	conf.SetDefault("redisAddr", "")
	conf.SetDefault("redisPassword", "")
	conf.SetDefault("redisDB", 0)

	conf.SetDefault("uploadsBackend", "local")
	conf.SetDefault("uploadsDir", filepath.Join("static", "uploads"))
	conf.SetDefault("uploadsS3Bucket", "")
	conf.SetDefault("uploadsS3Region", "us-east-1")
	conf.SetDefault("uploadsS3Endpoint", "")
	conf.SetDefault("uploadsS3AccessKey", "")
	conf.SetDefault("uploadsS3SecretKey", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:                  env,
		Debug:                conf.GetBool("debug"),
		TestMode:             conf.GetBool("testMode"),
		AppName:              conf.GetString("appName"),
		Build:                conf.GetString("build"),
		SecretKey:            conf.GetString("secretKey"),
		DefaultFromEmail:     conf.GetString("defaultFromEmail"),
		FrontendBaseURL:      strings.TrimSuffix(conf.GetString("frontendBaseURL"), "/"),
		PasswordResetTimeout: conf.GetDuration("passwordResetTimeout"),
		SendgridApiKey:       conf.GetString("sendgridApiKey"),
		RollbarToken:         conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:              conf.GetString("serverHost"),
			Port:              conf.GetString("serverPort"),
			DebugHost:         conf.GetString("serverDebugHost"),
			ShutdownTimeout:   conf.GetDuration("serverShutdownTimeout"),
			SessionCookieName: conf.GetString("serverSessionCookieName"),
			SessionTTL:        conf.GetDuration("serverSessionTTL"),
			DisableReqLogs:    conf.GetBool("serverDisableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("databaseEngine"),
			Host:          conf.GetString("databaseHost"),
			Port:          conf.GetString("databasePort"),
			User:          conf.GetString("databaseUser"),
			Password:      conf.GetString("databasePassword"),
			AdminUser:     conf.GetString("databaseAdminUser"),
			AdminPassword: conf.GetString("databaseAdminPassword"),
			Name:          conf.GetString("databaseName"),
			DisableTLS:    conf.GetBool("databaseDisableTLS"),
			MongoURI:      conf.GetString("databaseMongoURI"),
		},
		Redis: RedisConfig{
			Addr:     conf.GetString("redisAddr"),
			Password: conf.GetString("redisPassword"),
			DB:       conf.GetInt("redisDB"),
		},
		Uploads: UploadsConfig{
			Backend:     conf.GetString("uploadsBackend"),
			Dir:         conf.GetString("uploadsDir"),
			S3Bucket:    conf.GetString("uploadsS3Bucket"),
			S3Region:    conf.GetString("uploadsS3Region"),
			S3Endpoint:  conf.GetString("uploadsS3Endpoint"),
			S3AccessKey: conf.GetString("uploadsS3AccessKey"),
			S3SecretKey: conf.GetString("uploadsS3SecretKey"),
		},
	}
}

// NewTestConfig returns a Config suitable for unit tests: in-memory storage, no outbound services.
func NewTestConfig() *Config {
	return &Config{
		Env:                  "TEST",
		TestMode:             true,
		AppName:              "E-LEARN",
		Build:                "test",
		SecretKey:            "test-secret",
		DefaultFromEmail:     "noreply@test.local",
		FrontendBaseURL:      "http://localhost:8000",
		PasswordResetTimeout: time.Hour,
		Server: ServerConfig{
			Host:              "localhost",
			Port:              "8000",
			SessionCookieName: "elearn_session",
			SessionTTL:        time.Hour,
			DisableReqLogs:    true,
		},
		Database: DatabaseConfig{Engine: "memory"},
		Uploads:  UploadsConfig{Backend: "local"},
	}
}
