package main

import (
	"context"
	"log"
	"os"

	"github.com/shelfmates/bookshelf/internal/apperr"
	"github.com/shelfmates/bookshelf/internal/bookclub"
	"github.com/shelfmates/bookshelf/internal/friends"
	"github.com/shelfmates/bookshelf/internal/library"
	"github.com/shelfmates/bookshelf/pkg/database"
	"github.com/shelfmates/bookshelf/pkg/logger"
	"github.com/shelfmates/bookshelf/pkg/models"
)

// Seeds a few demo users, a book and a club. Safe to run more than once.
func main() {
	logger.Init(logger.INFO, false, os.Stdout)

	path := "data/bookshelf.db"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if err := database.InitDatabase(path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	users := library.NewDirectory(database.DB, 10)
	lib := library.NewLibrary(database.DB)
	friendService := friends.NewService(database.DB)
	clubs := bookclub.NewService(database.DB, 10)

	for _, name := range []string{"alice", "bob", "carol"} {
		if _, err := users.CreateUser(ctx, models.CreateUserRequest{Username: name}); err != nil && !apperr.Is(err, apperr.KindConflict) {
			log.Fatalf("Failed to create user %s: %v", name, err)
		}
	}

	pages := 310
	book := &models.Book{
		ISBN:      "9780261102217",
		Title:     "The Hobbit",
		Authors:   []string{"J.R.R. Tolkien"},
		PageCount: pages,
	}
	if _, err := lib.AddBook(ctx, "alice", book); err != nil && !apperr.Is(err, apperr.KindConflict) {
		log.Fatalf("Failed to add book: %v", err)
	}
	aliceBooks, err := lib.ListBooks(ctx, "alice")
	if err != nil || len(aliceBooks) == 0 {
		log.Fatalf("Failed to load alice's books: %v", err)
	}

	if _, err := friendService.SendRequest(ctx, "alice", "bob"); err != nil && !apperr.Is(err, apperr.KindConflict) {
		log.Fatalf("Failed to send friend request: %v", err)
	}
	if _, err := friendService.Accept(ctx, "bob", "alice"); err != nil && !apperr.Is(err, apperr.KindConflict) {
		log.Fatalf("Failed to accept friend request: %v", err)
	}
	if _, err := friendService.SendRequest(ctx, "carol", "alice"); err != nil && !apperr.Is(err, apperr.KindConflict) {
		log.Fatalf("Failed to send friend request: %v", err)
	}

	existing, err := clubs.SearchClubs(ctx, "Hobbit Readers")
	if err != nil {
		log.Fatalf("Failed to search clubs: %v", err)
	}
	if len(existing) == 0 {
		club, err := clubs.Create(ctx, models.CreateBookClubRequest{
			Name:      "Hobbit Readers",
			BookID:    aliceBooks[0].ID,
			Username:  "alice",
			StartDate: models.NewDate(2024, 3, 1),
		})
		if err != nil {
			log.Fatalf("Failed to create club: %v", err)
		}
		if _, err := clubs.Join(ctx, "bob", club.Name); err != nil {
			log.Fatalf("Failed to join club: %v", err)
		}
		if _, err := clubs.PostMessage(ctx, club.ID, "alice", "Welcome! First three chapters by Friday."); err != nil {
			log.Fatalf("Failed to post message: %v", err)
		}
	}

	log.Println("Seed data inserted successfully")
}
