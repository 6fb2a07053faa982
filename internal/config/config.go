package config

import "github.com/spf13/viper"

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	MySQL struct {
		DSN string
	} `mapstructure:"mysql"`

	Redis struct {
		Addr string
		// GuardEnabled switches on the transition idempotency guard. Off by
		// default: replaying a transition then double-adjusts stock, which
		// is the documented legacy behavior.
		GuardEnabled bool `mapstructure:"guard_enabled"`
	} `mapstructure:"redis"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
