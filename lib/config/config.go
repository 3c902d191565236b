// Package config loads configuration for the store and engine demo
// commands from flags, environment variables and an optional YAML file,
// in the teacher's cobra+viper+godotenv style.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/eneq/misc/cmd/util"
)

// StoreConfig holds the parameters radixstore.New needs plus the ambient
// logging level, mirroring ServerConfig's "struct of primitives + a
// pretty String()" shape.
type StoreConfig struct {
	KeySize      int           `yaml:"keySize"`
	BitsPerLevel int           `yaml:"bitsPerLevel"`
	Lifespan     time.Duration `yaml:"lifespan"`
	LogLevel     string        `yaml:"logLevel"`
}

// EngineConfig holds the parameters eventengine.New needs plus the
// ambient logging level.
type EngineConfig struct {
	Workers           int           `yaml:"workers"`
	MaintenancePeriod time.Duration `yaml:"maintenancePeriod"`
	LogLevel          string        `yaml:"logLevel"`
}

func (c *StoreConfig) String() string {
	var sb strings.Builder
	addSection := func(title string) { sb.WriteString("\n" + strings.ToUpper(title) + "\n") }
	addField := func(name, value string) { sb.WriteString(fmt.Sprintf("  %-18s: %s\n", name, value)) }

	addSection("Radix Store")
	addField("Key Size", fmt.Sprintf("%d bytes", c.KeySize))
	addField("Bits Per Level", strconv.Itoa(c.BitsPerLevel))
	addField("Lifespan", c.Lifespan.String())

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	return sb.String()
}

func (c *EngineConfig) String() string {
	var sb strings.Builder
	addSection := func(title string) { sb.WriteString("\n" + strings.ToUpper(title) + "\n") }
	addField := func(name, value string) { sb.WriteString(fmt.Sprintf("  %-18s: %s\n", name, value)) }

	addSection("Event Engine")
	addField("Workers", strconv.Itoa(c.Workers))
	addField("Maintenance Period", c.MaintenancePeriod.String())

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	return sb.String()
}

// InitEnv loads .env/.env.local files and wires viper to read MISC_
// prefixed environment variables.
func InitEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("misc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindStoreFlags registers the store's flags on cmd.
func BindStoreFlags(cmd *cobra.Command) {
	cmd.Flags().Int("key-size", 8, util.WrapString("fixed key length in bytes"))
	cmd.Flags().Int("bits-per-level", 8, util.WrapString("bits of key consumed per trie level (1-8)"))
	cmd.Flags().Duration("lifespan", time.Hour, util.WrapString("duration after which an entry is eligible for expiry"))
	cmd.Flags().String("log-level", "info", util.WrapString("log level (debug, info, warn, error)"))
}

// BindEngineFlags registers the engine's flags on cmd.
func BindEngineFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 4, util.WrapString("number of worker goroutines"))
	cmd.Flags().Duration("maintenance-period", time.Minute, util.WrapString("interval between listener maintenance passes"))
	cmd.Flags().String("log-level", "info", util.WrapString("log level (debug, info, warn, error)"))
}

// LoadStoreConfig binds cmd's flags to viper and reads a StoreConfig.
func LoadStoreConfig(cmd *cobra.Command) (*StoreConfig, error) {
	if err := util.BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	return &StoreConfig{
		KeySize:      viper.GetInt("key-size"),
		BitsPerLevel: viper.GetInt("bits-per-level"),
		Lifespan:     viper.GetDuration("lifespan"),
		LogLevel:     viper.GetString("log-level"),
	}, nil
}

// LoadEngineConfig binds cmd's flags to viper and reads an EngineConfig.
func LoadEngineConfig(cmd *cobra.Command) (*EngineConfig, error) {
	if err := util.BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	return &EngineConfig{
		Workers:           viper.GetInt("workers"),
		MaintenancePeriod: viper.GetDuration("maintenance-period"),
		LogLevel:          viper.GetString("log-level"),
	}, nil
}

// WriteYAML persists cfg to path as YAML.
func WriteYAML(path string, cfg any) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// ReadYAML loads cfg from path, overriding any flag/env defaults already
// applied to it.
func ReadYAML(path string, cfg any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, cfg)
}
