package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Build            string
		Env              string // DEV (local; default), TEST, QA, PROD
		Debug            bool
		TestMode         bool
		SecretKey        string
		DefaultFromEmail mail.Address
		RollbarToken     string
		SendgridApiKey   string

		Server   ServerConfig
		Database DatabaseConfig
		Admin    AdminConfig
		Storage  StorageConfig
		Redis    RedisConfig
		Kafka    KafkaConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		MaxUpload                 string // echo body limit, eg. "10M"
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// AdminConfig holds the credentials of the Admin seeded into an empty users table.
	AdminConfig struct {
		Username string
		Password string
	}

	StorageConfig struct {
		Driver string // local | s3
		Dir    string
		S3     S3Config
	}

	S3Config struct {
		Endpoint  string
		Region    string
		Bucket    string
		AccessKey string
		SecretKey string
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	KafkaConfig struct {
		Brokers []string
		Topic   string
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

// NewConfig loads the app configuration from defaults, an optional `config/.env.<env>` file and env vars.
// env vars are prefixed with the current ENV, eg. `DEV_DATABASE_HOST`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Kazi")
	v.SetDefault("build", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "k7f2-q!nd8$+3lx=w&zp0c(h!x)#*u9(#yg4h^$cegm2emy")
	v.SetDefault("defaultFromName", "Kazi")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_address", ":8000")
	v.SetDefault("server_debugHost", ":4000")
	v.SetDefault("server_readTimeout", 5*time.Second)
	v.SetDefault("server_writeTimeout", 10*time.Second)
	v.SetDefault("server_shutdownTimeout", 5*time.Second)
	v.SetDefault("server_jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server_jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server_maxUpload", "10M")
	v.SetDefault("server_disableReqLogs", false)

	v.SetDefault("database_engine", "postgres")
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", 5432)
	v.SetDefault("database_name", "kazi")
	v.SetDefault("database_user", "kazi")
	v.SetDefault("database_password", "kazi")
	v.SetDefault("database_adminUser", "")
	v.SetDefault("database_adminPassword", "")
	v.SetDefault("database_disableTLS", true)

	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_password", "admin123")

	v.SetDefault("storage_driver", "local")
	v.SetDefault("storage_dir", "uploads")
	v.SetDefault("storage_s3_endpoint", "")
	v.SetDefault("storage_s3_region", "us-east-1")
	v.SetDefault("storage_s3_bucket", "kazi")
	v.SetDefault("storage_s3_accessKey", "")
	v.SetDefault("storage_s3_secretKey", "")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "kazi.projects")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:   v.GetString("appName"),
		Build:     v.GetString("build"),
		Env:       env,
		Debug:     v.GetBool("debug"),
		TestMode:  v.GetBool("testMode"),
		SecretKey: v.GetString("secretKey"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromName"),
			Address: v.GetString("defaultFromEmail"),
		},
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:                      v.GetString("server_host"),
			Address:                   v.GetString("server_address"),
			DebugHost:                 v.GetString("server_debugHost"),
			ReadTimeout:               v.GetDuration("server_readTimeout"),
			WriteTimeout:              v.GetDuration("server_writeTimeout"),
			ShutdownTimeout:           v.GetDuration("server_shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server_jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server_jwtRefreshExpirationDelta"),
			MaxUpload:                 v.GetString("server_maxUpload"),
			DisableReqLogs:            v.GetBool("server_disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database_engine"),
			Host:          v.GetString("database_host"),
			Port:          v.GetInt("database_port"),
			Name:          v.GetString("database_name"),
			User:          v.GetString("database_user"),
			Password:      v.GetString("database_password"),
			AdminUser:     v.GetString("database_adminUser"),
			AdminPassword: v.GetString("database_adminPassword"),
			DisableTLS:    v.GetBool("database_disableTLS"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin_username"),
			Password: v.GetString("admin_password"),
		},
		Storage: StorageConfig{
			Driver: v.GetString("storage_driver"),
			Dir:    v.GetString("storage_dir"),
			S3: S3Config{
				Endpoint:  v.GetString("storage_s3_endpoint"),
				Region:    v.GetString("storage_s3_region"),
				Bucket:    v.GetString("storage_s3_bucket"),
				AccessKey: v.GetString("storage_s3_accessKey"),
				SecretKey: v.GetString("storage_s3_secretKey"),
			},
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("kafka_brokers")),
			Topic:   v.GetString("kafka_topic"),
		},
	}
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = CleanString(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
