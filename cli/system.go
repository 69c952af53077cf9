package cli

import (
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/shelfmates/bookshelf/cli/config"
	"github.com/spf13/cobra"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Client and server diagnostics",
}

var systemInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show client settings, server readiness and server counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("bookshelf CLI (%s, %s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

		cfg, err := config.Load()
		if err != nil {
			fmt.Println("Configuration: not initialized (run: bookshelf init <username>)")
			return nil
		}
		if path, err := config.GetConfigPath(); err == nil {
			fmt.Printf("Config:   %s\n", path)
		}
		fmt.Printf("Username: %s\n", cfg.User.Username)
		serverURL, _ := config.GetServerURL()
		fmt.Printf("Server:   %s\n", serverURL)

		var ready struct {
			Status string `json:"status"`
			Reason string `json:"reason"`
		}
		if _, err := apiGet("/readyz", &ready); err != nil {
			printError(fmt.Sprintf("Server not ready: %v", err))
			return nil
		}
		printSuccess(fmt.Sprintf("Server %s", ready.Status))

		var counters map[string]int64
		if _, err := apiGet("/metrics", &counters); err != nil {
			printError(fmt.Sprintf("Failed to read metrics: %v", err))
			return nil
		}
		if up, ok := counters["uptime_seconds"]; ok {
			fmt.Printf("Uptime:   %s\n", time.Duration(up)*time.Second)
			delete(counters, "uptime_seconds")
		}
		names := make([]string, 0, len(counters))
		for name := range counters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-28s %d\n", name, counters[name])
		}
		return nil
	},
}

func init() {
	systemCmd.AddCommand(systemInfoCmd)
}
