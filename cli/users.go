package cli

import (
	"fmt"
	"net/url"

	"github.com/shelfmates/bookshelf/pkg/models"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "User directory commands",
}

var usersSearchCmd = &cobra.Command{
	Use:   "search [prefix]",
	Short: "Search users by username prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var users []models.UserSummary
		if _, err := apiGet("/users/search?search="+url.QueryEscape(args[0]), &users); err != nil {
			printError(fmt.Sprintf("Search failed: %v", err))
			return err
		}

		if len(users) == 0 {
			fmt.Printf("No users found for prefix: %s\n", args[0])
			return nil
		}
		fmt.Printf("Found %d user(s):\n", len(users))
		for i, u := range users {
			fmt.Printf("%d. %s (%s)\n", i+1, u.Username, u.ID)
		}
		fmt.Println("\nTo add a friend: bookshelf friends send <username>")
		return nil
	},
}

var usersInfoCmd = &cobra.Command{
	Use:   "info [username]",
	Short: "Show a user's profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := ""
		if len(args) == 1 {
			username = args[0]
		} else {
			var err error
			if username, err = currentUser(); err != nil {
				return err
			}
		}

		var info models.UserInfo
		if _, err := apiGet("/userinfo?username="+url.QueryEscape(username), &info); err != nil {
			printError(fmt.Sprintf("Lookup failed: %v", err))
			return err
		}
		fmt.Printf("Username: %s\n", info.Username)
		if info.ImageURL != "" {
			fmt.Printf("Image: %s\n", info.ImageURL)
		}
		fmt.Printf("Dark mode: %t\n", info.DarkMode)
		return nil
	},
}

func init() {
	usersCmd.AddCommand(usersSearchCmd)
	usersCmd.AddCommand(usersInfoCmd)
}
