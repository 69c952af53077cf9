package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/shelfmates/bookshelf/pkg/models"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	importInput  string
)

var booksExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export library",
	Long:  `Export your library to JSON or CSV format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}

		var books []models.Book
		if _, err := apiGet("/books?username="+url.QueryEscape(username), &books); err != nil {
			return fmt.Errorf("failed to fetch library: %w", err)
		}

		outputData, err := encodeBooks(books, exportFormat)
		if err != nil {
			return err
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, outputData, 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			printSuccess(fmt.Sprintf("Exported %d book(s) to %s", len(books), exportOutput))
		} else {
			fmt.Println(string(outputData))
		}
		return nil
	},
}

var booksImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import library",
	Long:  `Import books from a JSON file produced by 'bookshelf books export'. Books whose ISBN is already in your library are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := currentUser()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(importInput)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		var books []models.Book
		if err := json.Unmarshal(data, &books); err != nil {
			return fmt.Errorf("failed to parse input file: %w", err)
		}

		imported, skipped := 0, 0
		for _, b := range books {
			body, err := importBody(b, username)
			if err != nil {
				return err
			}
			status, err := apiSend("POST", "/books", body, nil)
			switch {
			case err == nil:
				imported++
			case status == 409:
				skipped++
			default:
				printError(fmt.Sprintf("Failed to import %s: %v", b.ISBN, err))
				return err
			}
		}

		printSuccess(fmt.Sprintf("Imported %d book(s), skipped %d already in library", imported, skipped))
		return nil
	},
}

// importBody re-encodes b as an add-book request owned by username.
func importBody(b models.Book, username string) (map[string]interface{}, error) {
	b.ID, b.UserID = "", ""
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	delete(body, "createdAt")
	body["username"] = username
	return body, nil
}

func encodeBooks(books []models.Book, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(books, "", "  ")
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		w.Write([]string{"ISBN", "Title", "Authors", "PageCount", "ReadStatus", "ReadFormat", "Period"})
		for _, b := range books {
			w.Write([]string{
				b.ISBN,
				b.Title,
				strings.Join(b.Authors, "; "),
				strconv.Itoa(b.PageCount),
				string(b.ReadStatus),
				string(b.ReadFormat),
				describePeriod(b.Period),
			})
		}
		w.Flush()
		return buf.Bytes(), w.Error()
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func describePeriod(p models.ReadPeriod) string {
	switch p := p.(type) {
	case models.YearPeriod:
		return strconv.Itoa(p.Year)
	case models.RangePeriod:
		if p.End == nil {
			return p.Start.String() + ".."
		}
		return p.Start.String() + ".." + p.End.String()
	}
	return ""
}

func init() {
	booksExportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format (json, csv)")
	booksExportCmd.Flags().StringVar(&exportOutput, "output", "", "Output file path")
	booksCmd.AddCommand(booksExportCmd)

	booksImportCmd.Flags().StringVar(&importInput, "input", "", "Input file path")
	booksImportCmd.MarkFlagRequired("input")
	booksCmd.AddCommand(booksImportCmd)
}
