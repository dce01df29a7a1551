package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"walletExport/internal/exporter"
	"walletExport/internal/fees"
	"walletExport/internal/retry"
)

const (
	envPrefix = "EXPORTER"

	// DefaultNetwork is the Alchemy network slug used without --network.
	DefaultNetwork = "eth-mainnet"
	// DefaultKafkaTopic receives mirrored rows.
	DefaultKafkaTopic = "wallet.transfers"
)

// RetryConfig holds the backoff settings shared by every remote call.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      time.Duration
}

// Policy converts the settings into a retry policy without a classifier.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: r.MaxAttempts,
		BaseDelay:   r.BaseDelay,
		MaxDelay:    r.MaxDelay,
		Jitter:      r.Jitter,
	}
}

func (r RetryConfig) validate() error {
	if r.MaxAttempts < 1 {
		return fmt.Errorf("max-attempts must be at least 1, got %d", r.MaxAttempts)
	}
	if r.BaseDelay < 0 || r.MaxDelay < 0 || r.Jitter < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	if r.MaxDelay < r.BaseDelay {
		return fmt.Errorf("retry-max-delay %s is below retry-base-delay %s", r.MaxDelay, r.BaseDelay)
	}
	return nil
}

// Endpoint identifies the JSON-RPC provider.
type Endpoint struct {
	RPC     string
	APIKey  string
	Network string
}

// URL returns the explicit RPC URL, or the Alchemy URL built from network
// and API key.
func (e Endpoint) URL() (string, error) {
	if e.RPC != "" {
		return e.RPC, nil
	}
	if e.APIKey == "" {
		return "", fmt.Errorf("rpc url or api key is required")
	}
	network := e.Network
	if network == "" {
		network = DefaultNetwork
	}
	return fmt.Sprintf("https://%s.g.alchemy.com/v2/%s", network, e.APIKey), nil
}

// ExportConfig holds configuration for the export command.
type ExportConfig struct {
	Endpoint        Endpoint
	FromBlock       string
	ToBlock         string
	Out             string
	OutDir          string
	FeeConcurrency  int
	DedupCapacity   int
	PageInterval    time.Duration
	Retry           RetryConfig
	FeeStatusColumn bool
	PGDSN           string
	KafkaBrokers    []string
	KafkaTopic      string
	S3Bucket        string
	S3Prefix        string
	S3Region        string
	LogLevel        string
}

// LoadExport merges config file, environment variables, and flags into ExportConfig.
func LoadExport(cfgFile string, flags *pflag.FlagSet) (ExportConfig, error) {
	v, err := load(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("from-block", "0x0")
		v.SetDefault("to-block", "latest")
		v.SetDefault("out-dir", ".")
		v.SetDefault("dedup-capacity", exporter.DefaultDedupCapacity)
		v.SetDefault("page-interval", exporter.DefaultPageInterval)
		v.SetDefault("fee-status-column", false)
		v.SetDefault("kafka-topic", DefaultKafkaTopic)
	})
	if err != nil {
		return ExportConfig{}, err
	}

	fromBlock, err := ParseBlockTag(v.GetString("from-block"))
	if err != nil {
		return ExportConfig{}, fmt.Errorf("parse from-block: %w", err)
	}
	toBlock, err := ParseBlockTag(v.GetString("to-block"))
	if err != nil {
		return ExportConfig{}, fmt.Errorf("parse to-block: %w", err)
	}

	cfg := ExportConfig{
		Endpoint:        endpoint(v),
		FromBlock:       fromBlock,
		ToBlock:         toBlock,
		Out:             v.GetString("out"),
		OutDir:          v.GetString("out-dir"),
		FeeConcurrency:  v.GetInt("fee-concurrency"),
		DedupCapacity:   v.GetInt("dedup-capacity"),
		PageInterval:    v.GetDuration("page-interval"),
		Retry:           retryConfig(v),
		FeeStatusColumn: v.GetBool("fee-status-column"),
		PGDSN:           v.GetString("pg-dsn"),
		KafkaBrokers:    getStringSlice(v, "kafka-brokers"),
		KafkaTopic:      v.GetString("kafka-topic"),
		S3Bucket:        v.GetString("s3-bucket"),
		S3Prefix:        v.GetString("s3-prefix"),
		S3Region:        v.GetString("s3-region"),
		LogLevel:        v.GetString("log-level"),
	}
	return cfg, nil
}

// Validate reports the first out-of-range setting.
func (c ExportConfig) Validate() error {
	if _, err := c.Endpoint.URL(); err != nil {
		return err
	}
	if err := validateFeeConcurrency(c.FeeConcurrency); err != nil {
		return err
	}
	if c.DedupCapacity <= 0 {
		return fmt.Errorf("dedup-capacity must be greater than zero, got %d", c.DedupCapacity)
	}
	if c.PageInterval < 0 {
		return fmt.Errorf("page-interval must not be negative, got %s", c.PageInterval)
	}
	if c.Out == "" && c.OutDir == "" {
		return fmt.Errorf("out or out-dir is required")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("kafka-topic is required when kafka-brokers is set")
	}
	return c.Retry.validate()
}

// OutputPath returns --out when set, otherwise <out-dir>/<address>.csv.
func (c ExportConfig) OutputPath(address string) string {
	if c.Out != "" {
		return c.Out
	}
	dir := c.OutDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, strings.ToLower(address)+".csv")
}

func load(cfgFile string, flags *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", DefaultNetwork)
	policy := retry.Default()
	v.SetDefault("fee-concurrency", fees.DefaultConcurrency)
	v.SetDefault("max-attempts", policy.MaxAttempts)
	v.SetDefault("retry-base-delay", policy.BaseDelay)
	v.SetDefault("retry-max-delay", policy.MaxDelay)
	v.SetDefault("retry-jitter", policy.Jitter)
	v.SetDefault("log-level", "info")
	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func endpoint(v *viper.Viper) Endpoint {
	return Endpoint{
		RPC:     v.GetString("rpc"),
		APIKey:  v.GetString("api-key"),
		Network: v.GetString("network"),
	}
}

func retryConfig(v *viper.Viper) RetryConfig {
	return RetryConfig{
		MaxAttempts: v.GetInt("max-attempts"),
		BaseDelay:   v.GetDuration("retry-base-delay"),
		MaxDelay:    v.GetDuration("retry-max-delay"),
		Jitter:      v.GetDuration("retry-jitter"),
	}
}

func validateFeeConcurrency(n int) error {
	return fees.Config{Concurrency: n}.Validate()
}

// ParseBlockTag accepts a block tag (latest, earliest, ...), a 0x quantity
// or a decimal number and returns the form the provider expects.
func ParseBlockTag(input string) (string, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	switch input {
	case "":
		return "", fmt.Errorf("block is empty")
	case "latest", "earliest", "pending", "safe", "finalized":
		return input, nil
	}
	if strings.HasPrefix(input, "0x") {
		n, err := strconv.ParseUint(input[2:], 16, 64)
		if err != nil {
			return "", fmt.Errorf("invalid block %q: %w", input, err)
		}
		return hexutil.EncodeUint64(n), nil
	}
	n, err := strconv.ParseUint(input, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid block %q: %w", input, err)
	}
	return hexutil.EncodeUint64(n), nil
}

// RedactURL hides credentials in an RPC URL: userinfo, query values and
// the trailing API key path segment.
func RedactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	out := u.Scheme + "://"
	if u.User != nil {
		out += "***@"
	}
	out += u.Host
	path := u.Path
	if idx := strings.LastIndex(path, "/"); idx >= 0 && idx < len(path)-1 {
		path = path[:idx+1] + "***"
	}
	out += path
	if u.RawQuery != "" {
		out += "?***"
	}
	return out
}

// RedactDSN hides a database DSN entirely.
func RedactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
