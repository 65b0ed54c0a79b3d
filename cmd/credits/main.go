// Command credits inspects and adjusts user credit balances.
//
//	credits balance -user <id>
//	credits grant   -user <id> -amount 5
//	credits refund  -job <id> [-amount 1]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"reelgen/internal/adapter/repo"
	"reelgen/internal/domain"
	"reelgen/internal/infra"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		exitWithError(errors.New("usage: credits <balance|grant|refund> [flags]"))
	}
	command := strings.ToLower(strings.TrimSpace(os.Args[1]))

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	userFlag := fs.String("user", "", "user ID")
	jobFlag := fs.String("job", "", "job ID (refund only)")
	amountFlag := fs.Int("amount", 1, "credits to grant or refund")
	_ = fs.Parse(os.Args[2:])

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "credits").Str("op", command).Logger()
	ledger := repo.NewLedgerRepository(infra.NewSQLRunner(pool, logger))

	userID := strings.TrimSpace(*userFlag)
	switch command {
	case "balance":
		if userID == "" {
			exitWithError(errors.New("-user is required"))
		}
		credits, err := ledger.Balance(ctx, userID)
		if err != nil {
			exitWithError(describe(err))
		}
		fmt.Printf("user=%s credits=%d\n", userID, credits)
	case "grant":
		if userID == "" {
			exitWithError(errors.New("-user is required"))
		}
		credits, err := ledger.Grant(ctx, userID, *amountFlag)
		if err != nil {
			exitWithError(describe(err))
		}
		fmt.Printf("granted %d credit(s) to %s, balance now %d\n", *amountFlag, userID, credits)
	case "refund":
		jobID := strings.TrimSpace(*jobFlag)
		if jobID == "" {
			exitWithError(errors.New("-job is required"))
		}
		owner, credits, err := ledger.RefundJob(ctx, jobID, *amountFlag)
		if err != nil {
			exitWithError(describe(err))
		}
		fmt.Printf("refunded %d credit(s) for job %s to %s, balance now %d\n", *amountFlag, jobID, owner, credits)
	default:
		exitWithError(fmt.Errorf("unknown command %q", command))
	}
}

func describe(err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return errors.New("user not found")
	case errors.Is(err, domain.ErrNotFound):
		return errors.New("job not found")
	case errors.Is(err, domain.ErrDuplicateOperation):
		return errors.New("job was already refunded")
	case errors.Is(err, domain.ErrInvalidAmount):
		return errors.New("-amount must be at least 1")
	case errors.Is(err, domain.ErrInvalidTransition):
		return fmt.Errorf("only FAILED jobs can be refunded (%v)", err)
	}
	return err
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "credits: %v\n", err)
	os.Exit(1)
}
