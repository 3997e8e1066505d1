package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"sslmode"`
			MAXCONWAITINGTIME int    `mapstructure:"maxconwaitingtime"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"httpport"`
		Timeout  time.Duration `mapstructure:"httptimeout"`
	} `mapstructure:"server"`
	Storage struct {
		UploadRoot    string `mapstructure:"uploadroot"`
		MaxUploadSize int64  `mapstructure:"maxuploadsize"`
	} `mapstructure:"storage"`
	HashID HashID `mapstructure:"hashid"`
	Auth   struct {
		JWTSecret string        `mapstructure:"jwtsecret"`
		TokenTTL  time.Duration `mapstructure:"tokenttl"`
		Issuer    string        `mapstructure:"issuer"`
	} `mapstructure:"auth"`
	Bootstrap struct {
		Enabled     bool   `mapstructure:"enabled"`
		Username    string `mapstructure:"username"`
		Password    string `mapstructure:"password"`
		FullName    string `mapstructure:"fullname"`
		Email       string `mapstructure:"email"`
		PhoneNumber string `mapstructure:"phonenumber"`
	} `mapstructure:"bootstrap"`
}

// HashID configures the public token encoder for file assets.
type HashID struct {
	Salt     string `mapstructure:"salt"`
	Length   int    `mapstructure:"length"`
	Alphabet string `mapstructure:"alphabet"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// CEMETERY_REPOSITORIES_POSTGRES_HOST overrides repositories.postgres.host
	v.SetEnvPrefix("cemetery")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.validate(); err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

func (c Config) validate() error {
	if c.Storage.UploadRoot == "" {
		return fmt.Errorf("config: storage.uploadRoot must be set")
	}
	if c.HashID.Salt == "" {
		return fmt.Errorf("config: hashid.salt must be set")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwtSecret must be set")
	}
	return nil
}
