package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"examhub.org/internal/migrate"
)

func main() {
	var (
		dsn = flag.String("dsn", os.Getenv("EXAMHUB_PG_DSN"), "postgres connection string")
		dir = flag.String("migrations", "migrations", "directory with .up.sql/.down.sql files")
	)
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "status"
	}
	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "missing -dsn (or EXAMHUB_PG_DSN)")
		os.Exit(2)
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open database:", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mgr := migrate.NewManager(db, *dir)
	switch cmd {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			if len(history) == 0 {
				fmt.Println("no migrations applied")
			}
			for _, name := range history {
				fmt.Println(name)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want up, down or status)\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
