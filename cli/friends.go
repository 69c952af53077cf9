package cli

import (
	"fmt"
	"net/url"

	"github.com/shelfmates/bookshelf/pkg/models"
	"github.com/spf13/cobra"
)

var friendsCmd = &cobra.Command{
	Use:   "friends",
	Short: "Friend commands",
	Long:  `List friends, review pending requests and send or answer friend requests.`,
}

var friendsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your friends",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}

		var resp struct {
			Friends []models.UserSummary `json:"friends"`
		}
		if _, err := apiGet("/friends?username="+url.QueryEscape(username), &resp); err != nil {
			printError(fmt.Sprintf("Failed to list friends: %v", err))
			return err
		}

		if len(resp.Friends) == 0 {
			fmt.Println("No friends yet.")
			fmt.Println("Try: bookshelf users search <prefix>")
			return nil
		}
		fmt.Printf("%d friend(s):\n", len(resp.Friends))
		for i, f := range resp.Friends {
			fmt.Printf("%d. %s (%s)\n", i+1, f.Username, f.ID)
		}
		return nil
	},
}

var sentRequests bool

var friendsRequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Show pending friend requests",
	Long:  `Show incoming pending requests, or outgoing ones with --sent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}

		path := "/friends/requests"
		if sentRequests {
			path = "/friends/requests/sent"
		}
		var resp struct {
			Requests []models.FriendRequestView `json:"requests"`
		}
		if _, err := apiGet(path+"?username="+url.QueryEscape(username), &resp); err != nil {
			printError(fmt.Sprintf("Failed to load requests: %v", err))
			return err
		}

		if len(resp.Requests) == 0 {
			fmt.Println("No pending requests.")
			return nil
		}
		for _, r := range resp.Requests {
			fmt.Printf("- %s (%s) since %s\n", r.User.Username, r.User.ID, r.RequestedAt.Format("2006-01-02 15:04"))
		}
		if !sentRequests {
			fmt.Println("\nTo answer: bookshelf friends accept|decline <username>")
		}
		return nil
	},
}

var friendsSendCmd = &cobra.Command{
	Use:   "send [username]",
	Short: "Send a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}

		var resp struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		}
		body := models.SendFriendRequestBody{FromUsername: username, ToUsername: args[0]}
		if _, err := apiSend("POST", "/friends/send-request", body, &resp); err != nil {
			printError(fmt.Sprintf("Friend request failed: %v", err))
			return err
		}
		printSuccess(resp.Message)
		return nil
	},
}

func respondCmd(use, short, path, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [requester]",
		Short: short,
		Long:  short + `. The requester may be given by username or user ID.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := currentUser()
			if err != nil {
				return err
			}

			var resp struct {
				Message string `json:"message"`
			}
			body := models.RespondFriendRequestBody{Username: username, RequesterID: args[0]}
			if _, err := apiSend("POST", path, body, &resp); err != nil {
				printError(fmt.Sprintf("Failed to %s request: %v", verb, err))
				return err
			}
			printSuccess(resp.Message)
			return nil
		},
	}
}

func init() {
	friendsRequestsCmd.Flags().BoolVar(&sentRequests, "sent", false, "show requests you sent")
	friendsCmd.AddCommand(friendsListCmd)
	friendsCmd.AddCommand(friendsRequestsCmd)
	friendsCmd.AddCommand(friendsSendCmd)
	friendsCmd.AddCommand(respondCmd("accept", "Accept a friend request", "/friends/accept", "accept"))
	friendsCmd.AddCommand(respondCmd("decline", "Decline a friend request", "/friends/decline", "decline"))
}
