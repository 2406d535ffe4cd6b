package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/conversational-booking/internal/db"
	"github.com/hackgods/conversational-booking/internal/qa"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	dir := flag.String("dir", "", "directory of .txt/.md documents to load")
	demo := flag.Bool("demo", false, "also load a generated demo FAQ document")
	flag.Parse()

	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	if *dir == "" && !*demo {
		log.Fatal("nothing to load: pass -dir and/or -demo")
	}

	if err := db.RunMigrations(dsn); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, db.DefaultPoolConfig())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	docs := map[string]string{}
	if *dir != "" {
		if docs, err = readDocuments(*dir); err != nil {
			log.Fatalf("read documents: %v", err)
		}
	}
	if *demo {
		gofakeit.Seed(time.Now().UnixNano())
		docs["demo-faq.md"] = demoFAQ()
	}

	if err := seedDocuments(context.Background(), pool, docs); err != nil {
		log.Fatalf("seed documents: %v", err)
	}

	log.Println("seed complete")
}

// readDocuments returns every .txt and .md file directly under dir.
func readDocuments(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	docs := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md":
		default:
			log.Printf("skipping %s: only plain text is supported", e.Name())
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		docs[e.Name()] = string(raw)
	}
	return docs, nil
}

func seedDocuments(ctx context.Context, pool *pgxpool.Pool, docs map[string]string) error {
	log.Printf("seeding %d documents", len(docs))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	store := qa.NewPgDocumentStore(tx)
	for name, content := range docs {
		if _, err := store.Add(ctx, name, content); err != nil {
			if errors.Is(err, qa.ErrEmptyDocument) {
				log.Printf("skipping %s: empty", name)
				continue
			}
			return fmt.Errorf("add %s: %w", name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("documents seeded")
	return nil
}

func demoFAQ() string {
	company := gofakeit.Company()
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", company)
	fmt.Fprintf(&b, "%s is a family practice run by %s.\n\n", company, gofakeit.Name())
	fmt.Fprintf(&b, "## Location\n\nWe are at %s, %s, %s %s.\n\n", gofakeit.Street(), gofakeit.City(), gofakeit.State(), gofakeit.Zip())
	fmt.Fprintf(&b, "## Opening hours\n\nMonday to Friday, 9am to 5pm. Saturday 10am to 2pm.\n\n")
	fmt.Fprintf(&b, "## Contact\n\nCall %s or email %s.\n\n", gofakeit.Phone(), gofakeit.Email())
	fmt.Fprintf(&b, "## Appointments\n\nAppointments can be booked up to two years ahead. Please arrive ten minutes early.\n")
	return b.String()
}
