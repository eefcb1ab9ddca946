// Package config implements A1's configuration surface: CLI flags,
// NCISIM_-prefixed environment variables, and an optional TOML file,
// adapted from marmos91-dittofs's pkg/config viper setup.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the simulator's static configuration: which ports to bind
// and which optional surfaces to enable.
type Config struct {
	NCIPort     int  `mapstructure:"nci_port"`
	RFPort      int  `mapstructure:"rf_port"`
	AdminPort   int  `mapstructure:"admin_port"`
	EnableAdmin bool `mapstructure:"enable_admin"`
	Advertise   bool `mapstructure:"advertise"`
}

// Defaults mirror spec.md's flag table.
const (
	DefaultNCIPort   = 7000
	DefaultRFPort    = 7001
	DefaultAdminPort = 7002
)

// BindFlags registers the configuration flags on cmd and returns the
// path of the --config flag so the caller can read it once cobra has
// parsed arguments. Flags are bound to v so a flag explicitly set on
// the command line always wins over env and file values.
func BindFlags(cmd *cobra.Command, v *viper.Viper) (configFlag *string) {
	flags := cmd.Flags()
	flags.Int("nci-port", DefaultNCIPort, "port the NCI listener binds")
	flags.Int("rf-port", DefaultRFPort, "port the RF listener binds")
	flags.Int("admin-port", DefaultAdminPort, "port the admin HTTP/WebSocket server binds (requires --enable-admin)")
	flags.Bool("enable-admin", false, "expose the admin HTTP/WebSocket surface")
	flags.Bool("advertise", false, "advertise this instance over mDNS")
	configFlag = flags.String("config", "", "path to a TOML config file")

	_ = v.BindPFlag("nci_port", flags.Lookup("nci-port"))
	_ = v.BindPFlag("rf_port", flags.Lookup("rf-port"))
	_ = v.BindPFlag("admin_port", flags.Lookup("admin-port"))
	_ = v.BindPFlag("enable_admin", flags.Lookup("enable-admin"))
	_ = v.BindPFlag("advertise", flags.Lookup("advertise"))
	return configFlag
}

// Load builds a Viper instance with env and (optional) file support,
// applying the flag/env/file/default precedence described in
// spec.md's CLI surface, and unmarshals it into a Config.
//
// configPath empty means no --config was given: a missing file is not
// an error, the defaults (and any flags/env already bound to v) stand.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	v.SetEnvPrefix("NCISIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", configPath, err)
			}
		}
	}

	cfg := &Config{
		NCIPort:     DefaultNCIPort,
		RFPort:      DefaultRFPort,
		AdminPort:   DefaultAdminPort,
		EnableAdmin: false,
		Advertise:   false,
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
