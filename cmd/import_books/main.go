package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bookshop-management/bookshop"
	"bookshop-management/config"
	"bookshop-management/logger"
)

// import_books bulk-loads a books-format file (id|title|author|category|price|quantity|dateAdded,
// dateAdded may be empty) into the configured store. Existing ids are skipped.
func main() {
	configPath := flag.String("config", "", "config file (default ./bookshop.yaml)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: import_books [-config file] <books-file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	store, err := bookshop.OpenStore(bookshop.StoreOptions{
		Kind:       cfg.Store.Kind,
		Dir:        cfg.Store.Dir,
		BooksFile:  cfg.Store.BooksFile,
		SalesFile:  cfg.Store.SalesFile,
		UsersFile:  cfg.Store.UsersFile,
		SQLitePath: cfg.Store.SQLitePath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	books, err := store.LoadBooks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading books: %v\n", err)
		os.Exit(1)
	}
	catalog := bookshop.NewCatalog(store, books, nil)

	path := flag.Arg(0)
	fmt.Printf("Importing books from %s...\n", path)
	imported, skipped, failed, err := importFile(catalog, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	log.Info().Str("file", path).Int("imported", imported).Int("skipped", skipped).Int("failed", failed).Msg("books imported")

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", imported)
	fmt.Printf("Skipped (duplicate id): %d\n", skipped)
	fmt.Printf("Errors: %d\n", failed)

	if imported > 0 {
		fmt.Println("\nCatalog:")
		fmt.Printf("%-8s %-40s %-25s %s\n", "ID", "Title", "Author", "Qty")
		fmt.Println(strings.Repeat("-", 80))
		for _, b := range catalog.List() {
			fmt.Printf("%-8s %-40s %-25s %d\n", b.ID, truncateString(b.Title, 40), truncateString(b.Author, 25), b.Quantity)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// importFile adds every record of path to catalog. Records with an empty
// date field get the import time.
func importFile(catalog *bookshop.Catalog, path string) (imported, skipped, failed int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasSuffix(line, "|") {
			line += time.Now().Format(time.ANSIC)
		}
		book, decodeErr := bookshop.DecodeBook(line)
		if decodeErr != nil {
			fmt.Printf("line %d: ERROR - %v\n", lineNo, decodeErr)
			failed++
			continue
		}
		if _, addErr := catalog.Add(book); addErr != nil {
			if errors.Is(addErr, bookshop.ErrDuplicateID) {
				fmt.Printf("line %d: skipped %s (already in catalog)\n", lineNo, book.ID)
				skipped++
				continue
			}
			fmt.Printf("line %d: ERROR - %v\n", lineNo, addErr)
			failed++
			continue
		}
		fmt.Printf("line %d: imported %s (%s)\n", lineNo, book.ID, book.Title)
		imported++
	}
	return imported, skipped, failed, sc.Err()
}

// truncateString shortens s to maxLen runes, marking the cut with "...".
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
