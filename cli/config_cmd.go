package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shelfmates/bookshelf/cli/config"
	"github.com/spf13/cobra"
)

// configField is one settable key of the CLI config file.
type configField struct {
	get func(cfg *config.Config) string
	set func(cfg *config.Config, value string) error
}

var logLevels = []string{"debug", "info", "warn", "error"}

var configFields = map[string]configField{
	"server.host": {
		get: func(cfg *config.Config) string { return cfg.Server.Host },
		set: func(cfg *config.Config, v string) error {
			if v == "" {
				return fmt.Errorf("server.host must not be empty")
			}
			cfg.Server.Host = v
			return nil
		},
	},
	"server.http_port": {
		get: func(cfg *config.Config) string { return strconv.Itoa(cfg.Server.HTTPPort) },
		set: func(cfg *config.Config, v string) error {
			port, err := strconv.Atoi(v)
			if err != nil || port <= 0 || port > 65535 {
				return fmt.Errorf("server.http_port must be a port number, got %q", v)
			}
			cfg.Server.HTTPPort = port
			return nil
		},
	},
	"user.username": {
		get: func(cfg *config.Config) string { return cfg.User.Username },
		set: func(cfg *config.Config, v string) error {
			cfg.User.Username = v
			return nil
		},
	},
	"logging.level": {
		get: func(cfg *config.Config) string { return cfg.Logging.Level },
		set: func(cfg *config.Config, v string) error {
			v = strings.ToLower(v)
			for _, level := range logLevels {
				if v == level {
					cfg.Logging.Level = v
					return nil
				}
			}
			return fmt.Errorf("logging.level must be one of %s", strings.Join(logLevels, ", "))
		},
	},
}

func configKeys() []string {
	keys := make([]string, 0, len(configFields))
	for k := range configFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func loadConfigOrHint() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		printError("Configuration not initialized")
		fmt.Println("Run: bookshelf init <username>")
		return nil, err
	}
	return cfg, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify ~/.bookshelf/config.yaml.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigOrHint()
		if err != nil {
			return err
		}
		if path, err := config.GetConfigPath(); err == nil {
			fmt.Printf("# %s\n", path)
		}
		for _, key := range configKeys() {
			fmt.Printf("%s = %s\n", key, configFields[key].get(cfg))
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, ok := configFields[strings.ToLower(args[0])]
		if !ok {
			return fmt.Errorf("unknown configuration key %q (known: %s)", args[0], strings.Join(configKeys(), ", "))
		}
		cfg, err := loadConfigOrHint()
		if err != nil {
			return err
		}
		fmt.Println(field.get(cfg))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long:  `Set a configuration value, e.g. "bookshelf config set server.http_port 9090".`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		field, ok := configFields[key]
		if !ok {
			return fmt.Errorf("unknown configuration key %q (known: %s)", args[0], strings.Join(configKeys(), ", "))
		}
		cfg, err := loadConfigOrHint()
		if err != nil {
			return err
		}
		if err := field.set(cfg, args[1]); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		printSuccess(fmt.Sprintf("%s = %s", key, field.get(cfg)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
