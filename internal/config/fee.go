package config

import (
	"github.com/spf13/pflag"
)

// FeeConfig holds configuration for the fee command.
type FeeConfig struct {
	Endpoint       Endpoint
	FeeConcurrency int
	Retry          RetryConfig
	LogLevel       string
}

// LoadFee merges config file, environment variables, and flags into FeeConfig.
func LoadFee(cfgFile string, flags *pflag.FlagSet) (FeeConfig, error) {
	v, err := load(cfgFile, flags, nil)
	if err != nil {
		return FeeConfig{}, err
	}
	return FeeConfig{
		Endpoint:       endpoint(v),
		FeeConcurrency: v.GetInt("fee-concurrency"),
		Retry:          retryConfig(v),
		LogLevel:       v.GetString("log-level"),
	}, nil
}

func (c FeeConfig) Validate() error {
	if _, err := c.Endpoint.URL(); err != nil {
		return err
	}
	if err := validateFeeConcurrency(c.FeeConcurrency); err != nil {
		return err
	}
	return c.Retry.validate()
}
