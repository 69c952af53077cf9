package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shelfmates/bookshelf/pkg/models"
	"github.com/spf13/cobra"
)

var (
	bookTitle     string
	bookAuthors   string
	bookPageCount int
	bookStatus    string
	bookYear      int
	bookStart     string
	bookEnd       string
)

var (
	updateStatus string
	updatePages  int
	updatePage   int
	updateYear   int
	updateStart  string
	updateEnd    string
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Personal library commands",
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books in your library",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}

		var books []models.Book
		if _, err := apiGet("/books?username="+url.QueryEscape(username), &books); err != nil {
			printError(fmt.Sprintf("Failed to list books: %v", err))
			return err
		}
		if len(books) == 0 {
			fmt.Println("Your library is empty.")
			return nil
		}
		for i, b := range books {
			fmt.Printf("%d. %s [%s] %s\n", i+1, b.Title, b.ISBN, b.ReadStatus)
			fmt.Printf("   ID: %s\n", b.ID)
		}
		return nil
	},
}

var booksAddCmd = &cobra.Command{
	Use:   "add [isbn]",
	Short: "Add a book to your library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}

		body := map[string]interface{}{
			"username":   username,
			"isbn":       args[0],
			"title":      bookTitle,
			"readStatus": bookStatus,
		}
		if bookAuthors != "" {
			body["authors"] = strings.Split(bookAuthors, ",")
		}
		if bookPageCount > 0 {
			body["pageCount"] = bookPageCount
		}
		switch {
		case bookYear > 0:
			body["dateFormat"] = models.DateFormatYear
			body["readYear"] = bookYear
		case bookStart != "":
			body["dateFormat"] = models.DateFormatDate
			body["startDate"] = bookStart
			if bookEnd != "" {
				body["endDate"] = bookEnd
			}
		}

		var book models.Book
		if _, err := apiSend("POST", "/books", body, &book); err != nil {
			printError(fmt.Sprintf("Failed to add book: %v", err))
			return err
		}
		printSuccess(fmt.Sprintf("Added %s (%s)", book.Title, book.ID))
		return nil
	},
}

var booksUpdateCmd = &cobra.Command{
	Use:   "update [isbn]",
	Short: "Update reading status, pages or dates of a book",
	Long: `Update a book in your library. Finishing a book you are reading takes
--status read together with --end.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}

		body := map[string]interface{}{"username": username}
		flags := cmd.Flags()
		if flags.Changed("status") {
			body["readStatus"] = updateStatus
		}
		if flags.Changed("pages") {
			body["pageCount"] = updatePages
		}
		if flags.Changed("page") {
			body["currentPage"] = updatePage
		}
		if flags.Changed("year") {
			body["dateFormat"] = models.DateFormatYear
			body["readYear"] = updateYear
		} else {
			if updateStart != "" {
				body["startDate"] = updateStart
			}
			if updateEnd != "" {
				body["endDate"] = updateEnd
			}
		}
		if len(body) == 1 {
			return fmt.Errorf("nothing to update")
		}

		var book models.Book
		if _, err := apiSend("PATCH", "/books/"+url.PathEscape(args[0]), body, &book); err != nil {
			printError(fmt.Sprintf("Failed to update book: %v", err))
			return err
		}
		printSuccess(fmt.Sprintf("Updated %s: %s", book.ISBN, book.ReadStatus))
		return nil
	},
}

func init() {
	booksAddCmd.Flags().StringVar(&bookTitle, "title", "", "book title")
	booksAddCmd.Flags().StringVar(&bookAuthors, "authors", "", "comma separated authors")
	booksAddCmd.Flags().IntVar(&bookPageCount, "pages", 0, "page count")
	booksAddCmd.Flags().StringVar(&bookStatus, "status", string(models.StatusNotRead), "read status")
	booksAddCmd.Flags().IntVar(&bookYear, "year", 0, "year the book was read")
	booksAddCmd.Flags().StringVar(&bookStart, "start", "", "start date (YYYY-MM-DD)")
	booksAddCmd.Flags().StringVar(&bookEnd, "end", "", "end date (YYYY-MM-DD)")
	booksUpdateCmd.Flags().StringVar(&updateStatus, "status", "", "read status")
	booksUpdateCmd.Flags().IntVar(&updatePages, "pages", 0, "page count")
	booksUpdateCmd.Flags().IntVar(&updatePage, "page", 0, "current page")
	booksUpdateCmd.Flags().IntVar(&updateYear, "year", 0, "year the book was read")
	booksUpdateCmd.Flags().StringVar(&updateStart, "start", "", "start date (YYYY-MM-DD)")
	booksUpdateCmd.Flags().StringVar(&updateEnd, "end", "", "end date (YYYY-MM-DD)")
	booksCmd.AddCommand(booksListCmd)
	booksCmd.AddCommand(booksAddCmd)
	booksCmd.AddCommand(booksUpdateCmd)
}
