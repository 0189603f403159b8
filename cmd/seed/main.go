package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"randomchallenge/api/internal/auth"
	"randomchallenge/api/internal/config"
	"randomchallenge/api/internal/database"
	"randomchallenge/api/internal/seed"

	"go.uber.org/zap"
)

var (
	newLogger = zap.NewProduction
	exitFunc  = os.Exit
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		exitFunc(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	reset := fs.Bool("reset", false, "remove all categories, challenges and users before seeding")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	data, err := seed.Default()
	if err != nil {
		return err
	}
	res, err := seed.NewSeeder(store, auth.Hasher{Cost: cfg.BcryptCost}, logger).Run(ctx, data, *reset)
	if errors.Is(err, seed.ErrAlreadySeeded) {
		logger.Info("store already contains data, pass --reset to reseed")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d categories, %d challenges and %d users.\n", res.Categories, res.Challenges, res.Users)
	fmt.Println("Test accounts:")
	for _, u := range data.Users {
		fmt.Printf("  %s: %s / %s\n", u.Role, u.Email, u.Password)
	}
	return nil
}
