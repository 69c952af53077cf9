package cli

import (
	"fmt"
	"net/url"

	"github.com/shelfmates/bookshelf/pkg/models"
	"github.com/spf13/cobra"
)

var (
	clubBookID string
	clubStart  string
	clubEnd    string
)

var clubCmd = &cobra.Command{
	Use:   "club",
	Short: "Book club commands",
	Long:  `Create, join and follow book clubs and their message boards.`,
}

var clubCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a book club",
	Long:  `Create a book club around one of your books. You become its admin and first member.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}
		if clubBookID == "" {
			return fmt.Errorf("book id is required (--book)")
		}
		if clubStart == "" {
			return fmt.Errorf("start date is required (--start YYYY-MM-DD)")
		}

		body := map[string]string{
			"name":      args[0],
			"bookId":    clubBookID,
			"username":  username,
			"startDate": clubStart,
		}
		if clubEnd != "" {
			body["endDate"] = clubEnd
		}

		var club models.BookClub
		if _, err := apiSend("POST", "/bookclub/create", body, &club); err != nil {
			printError(fmt.Sprintf("Failed to create club: %v", err))
			return err
		}
		printSuccess(fmt.Sprintf("Created club %s (%s)", club.Name, club.ID))
		fmt.Printf("Starts: %s\n", club.StartDate)
		return nil
	},
}

var clubJoinCmd = &cobra.Command{
	Use:   "join [name]",
	Short: "Join a book club by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}

		var resp struct {
			Message     string           `json:"message"`
			BookClub    *models.BookClub `json:"BookClub"`
			CopyCreated bool             `json:"copyCreated"`
		}
		path := fmt.Sprintf("/bookclub/join?username=%s&bookClubName=%s", url.QueryEscape(username), url.QueryEscape(args[0]))
		if _, err := apiSend("PATCH", path, nil, &resp); err != nil {
			printError(fmt.Sprintf("Failed to join club: %v", err))
			return err
		}
		printSuccess(resp.Message)
		return nil
	},
}

var clubStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show your current club, members and message board",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}

		var m models.Membership
		if _, err := apiGet("/bookclub/check-membership?username="+url.QueryEscape(username), &m); err != nil {
			printError(fmt.Sprintf("Membership check failed: %v", err))
			return err
		}
		if !m.IsMember {
			fmt.Println("You are not in a book club.")
			fmt.Println("Try: bookshelf club search <prefix>")
			return nil
		}

		fmt.Printf("Club: %s (%s)\n", m.BookClub.Name, m.BookClub.ID)
		if m.CanonicalBook != nil {
			fmt.Printf("Book: %s [%s]\n", m.CanonicalBook.Title, m.CanonicalBook.ISBN)
		}
		if m.Book != nil {
			fmt.Printf("Your copy: %s (%s)\n", m.Book.ReadStatus, m.Book.ID)
		}
		fmt.Printf("\nMembers (%d):\n", len(m.Members))
		for _, member := range m.Members {
			fmt.Printf("  - %s\n", member.Username)
		}
		printBoard(m.MessageBoard)
		return nil
	},
}

var clubPostCmd = &cobra.Command{
	Use:   "post [club-id] [message]",
	Short: "Post to a club's message board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}

		var resp struct {
			MessageBoard []models.Message `json:"messageBoard"`
		}
		body := models.PostMessageRequest{Message: args[1], Username: username}
		if _, err := apiSend("POST", "/bookclub/"+url.PathEscape(args[0])+"/message", body, &resp); err != nil {
			printError(fmt.Sprintf("Failed to post message: %v", err))
			return err
		}
		printSuccess("Message posted")
		printBoard(resp.MessageBoard)
		return nil
	},
}

var clubSearchCmd = &cobra.Command{
	Use:   "search [prefix]",
	Short: "Search clubs by name prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var clubs []models.ClubSummary
		if _, err := apiGet("/bookclub/search?search="+url.QueryEscape(args[0]), &clubs); err != nil {
			printError(fmt.Sprintf("Search failed: %v", err))
			return err
		}
		if len(clubs) == 0 {
			fmt.Printf("No clubs found for prefix: %s\n", args[0])
			return nil
		}
		for i, c := range clubs {
			fmt.Printf("%d. %s - %s (%d members)\n", i+1, c.Name, c.BookTitle, c.MemberCount)
		}
		fmt.Println("\nTo join: bookshelf club join <name>")
		return nil
	},
}

func printBoard(board []models.Message) {
	fmt.Printf("\nMessage board (%d):\n", len(board))
	for _, msg := range board {
		fmt.Printf("  [%s] %s: %s\n", msg.PostedAt.Format("2006-01-02 15:04"), msg.PostedBy.Username, msg.Message)
	}
}

func init() {
	clubCreateCmd.Flags().StringVar(&clubBookID, "book", "", "id of the book in your library")
	clubCreateCmd.Flags().StringVar(&clubStart, "start", "", "start date (YYYY-MM-DD)")
	clubCreateCmd.Flags().StringVar(&clubEnd, "end", "", "end date (YYYY-MM-DD)")
	clubCreateCmd.MarkFlagRequired("start")
	clubCmd.AddCommand(clubCreateCmd)
	clubCmd.AddCommand(clubJoinCmd)
	clubCmd.AddCommand(clubStatusCmd)
	clubCmd.AddCommand(clubPostCmd)
	clubCmd.AddCommand(clubSearchCmd)
}
