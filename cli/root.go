package cli

import (
	"fmt"
	"os"

	"github.com/shelfmates/bookshelf/cli/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var asUser string

var rootCmd = &cobra.Command{
	Use:           "bookshelf",
	Short:         "Bookshelf command line client",
	Long:          `Manage friends, book clubs and reading stats from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var initCmd = &cobra.Command{
	Use:   "init [username]",
	Short: "Initialize CLI configuration",
	Long:  `Create ~/.bookshelf/config.yaml and register the username with the server if it does not exist yet.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(args[0]); err != nil {
			printError(fmt.Sprintf("Failed to initialize config: %v", err))
			return err
		}
		printSuccess("Configuration initialized")

		var user struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		}
		status, err := apiSend("POST", "/users", map[string]string{"username": args[0]}, &user)
		switch {
		case err == nil:
			printSuccess(fmt.Sprintf("Registered %s (%s)", user.Username, user.ID))
		case status == 409:
			fmt.Printf("User %s already registered\n", args[0])
		default:
			fmt.Println("Warning: could not register user:", err)
			fmt.Println("Check server status: bookshelf system info")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&asUser, "user", "u", "", "act as this username instead of the configured one")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(friendsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(booksCmd)
	rootCmd.AddCommand(clubCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(systemCmd)
}

func Execute() {
	if err := Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Run executes the command line in args against the configured server.
// Flags are reset first so values from an earlier Run do not leak.
func Run(args []string) error {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// currentUser resolves --user, falling back to the configured username.
func currentUser() (string, error) {
	if asUser != "" {
		return asUser, nil
	}
	cfg, err := config.Load()
	if err != nil {
		printError("Configuration not initialized")
		fmt.Println("Run: bookshelf init <username>")
		return "", err
	}
	if cfg.User.Username == "" {
		return "", fmt.Errorf("no username configured (use --user or bookshelf init)")
	}
	return cfg.User.Username, nil
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "✗ %s\n", msg)
}

func printSuccess(msg string) {
	fmt.Printf("✓ %s\n", msg)
}
