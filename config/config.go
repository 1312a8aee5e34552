package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/cfssl/log"
	"github.com/holiman/uint256"
	"github.com/hotoken/common"
	"github.com/hotoken/reservation"
	"github.com/hotoken/util"
	"github.com/spf13/viper"
)

const EnvPrefix = "hotoken"

type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Reservation ReservationConfig `mapstructure:"reservation"`
	DB          DBConfig          `mapstructure:"db"`
	Redis       RedisConfig       `mapstructure:"redis"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Faucet      FaucetConfig      `mapstructure:"faucet"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// 金额均为整数美元，conversion_rate 为美分
type ReservationConfig struct {
	Owner           string `mapstructure:"owner"`
	Address         string `mapstructure:"address"`
	MinimumPurchase uint64 `mapstructure:"minimum_purchase"`
	MinimumSold     uint64 `mapstructure:"minimum_sold"`
	ConversionRate  uint64 `mapstructure:"conversion_rate"`
	TokenPriceCents uint64 `mapstructure:"token_price_cents"`
	Paused          bool   `mapstructure:"paused"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	ListKey  string `mapstructure:"list_key"`
}

type HTTPConfig struct {
	Addr        string `mapstructure:"addr"`
	SSLRedirect bool   `mapstructure:"ssl_redirect"`
	SSLHost     string `mapstructure:"ssl_host"`
}

// init_balance 为十进制字符串，原生币最小单位
type FaucetConfig struct {
	InitBalance string `mapstructure:"init_balance"`
}

func setDefaults(v *viper.Viper) {
	opts := reservation.DefaultOptions()
	v.SetDefault("log.level", "info")
	v.SetDefault("reservation.owner", "")
	v.SetDefault("reservation.address", "0x1000000000000000000000000000000000000001")
	v.SetDefault("reservation.minimum_purchase", opts.MinimumPurchase)
	v.SetDefault("reservation.minimum_sold", opts.MinimumSold)
	v.SetDefault("reservation.conversion_rate", opts.ConversionRate)
	v.SetDefault("reservation.token_price_cents", opts.TokenPriceCents)
	v.SetDefault("reservation.paused", opts.Paused)
	v.SetDefault("db.path", "./data/hotoken")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.list_key", common.EventListKey)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.ssl_redirect", false)
	v.SetDefault("http.ssl_host", "")
	v.SetDefault("faucet.init_balance", "100000000000000000000")
}

// 读取 yaml 配置，path 为空时只使用默认值与环境变量（HOTOKEN_RESERVATION_OWNER 等）
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Reservation.Owner == "" {
		return errors.New("reservation.owner 未配置")
	}
	owner, err := util.NormalizeAddress(c.Reservation.Owner)
	if err != nil {
		return fmt.Errorf("reservation.owner: %w", err)
	}
	c.Reservation.Owner = owner

	address, err := util.NormalizeAddress(c.Reservation.Address)
	if err != nil {
		return fmt.Errorf("reservation.address: %w", err)
	}
	c.Reservation.Address = address
	if owner == address {
		return errors.New("合约地址不能与所有者相同")
	}
	if c.Reservation.TokenPriceCents == 0 {
		return errors.New("reservation.token_price_cents 不能为 0")
	}
	if _, err := c.InitBalance(); err != nil {
		return err
	}
	return nil
}

func (c *Config) ReservationOptions() reservation.Options {
	return reservation.Options{
		Address:         c.Reservation.Address,
		MinimumPurchase: c.Reservation.MinimumPurchase,
		MinimumSold:     c.Reservation.MinimumSold,
		ConversionRate:  c.Reservation.ConversionRate,
		TokenPriceCents: c.Reservation.TokenPriceCents,
		Paused:          c.Reservation.Paused,
	}
}

func (c *Config) InitBalance() (*uint256.Int, error) {
	b, err := uint256.FromDecimal(c.Faucet.InitBalance)
	if err != nil {
		return nil, fmt.Errorf("faucet.init_balance: %w", err)
	}
	return b, nil
}

// 设置 cfssl 日志级别
func (c *Config) ApplyLogLevel() {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		log.Level = log.LevelDebug
	case "warning", "warn":
		log.Level = log.LevelWarning
	case "error":
		log.Level = log.LevelError
	default:
		log.Level = log.LevelInfo
	}
}
