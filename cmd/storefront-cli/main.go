package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/egannguyen/tica-shop/internal/catalog"
	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/repository"
	"github.com/egannguyen/tica-shop/internal/repository/postgres"
)

const usage = "expected 'seed' or 'upsert-user' subcommand"

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.InitDB(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	err = runCommand(ctx, os.Args[1:], postgres.NewProductRepository(db), postgres.NewUserRepository(db), os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		db.Close()
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, args []string, products repository.ProductRepository, users repository.UserRepository, out io.Writer) error {
	switch args[0] {
	case "seed":
		seed, err := catalog.Products()
		if err != nil {
			return err
		}
		if err := products.Seed(ctx, seed); err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		fmt.Fprintf(out, "Seeded %d products.\n", len(seed))
		return nil

	case "upsert-user":
		fs := flag.NewFlagSet("upsert-user", flag.ContinueOnError)
		fs.SetOutput(out)
		openID := fs.String("open-id", "", "openId of the user")
		name := fs.String("name", "", "Display name")
		email := fs.String("email", "", "Email address")
		role := fs.String("role", "", "Role: user or admin (empty keeps the stored role)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *openID == "" {
			fs.PrintDefaults()
			return fmt.Errorf("open-id is required")
		}

		u := &entity.User{OpenID: *openID, Name: *name, Email: *email, LoginMethod: "cli"}
		if *role != "" {
			r, err := entity.ParseRole(*role)
			if err != nil {
				return err
			}
			u.Role = r
		}

		saved, err := users.Upsert(ctx, u)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "User '%s' saved with role %s.\n", saved.OpenID, saved.Role)
		return nil

	default:
		return fmt.Errorf("%s, got %q", usage, args[0])
	}
}
