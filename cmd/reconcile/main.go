// Command reconcile lets an operator work the payment reconciliation queue
// without the admin API.
//
//	reconcile sweep [-older-than 30m]
//	reconcile list [-limit 50]
//	reconcile refund <case-id>
//	reconcile resolve <case-id> <note>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"boutique-be/internal/config"
	"boutique-be/internal/db"
	"boutique-be/internal/logger"
	"boutique-be/internal/metrics"
	"boutique-be/internal/payment"
	"boutique-be/internal/reconciliation"
	"boutique-be/internal/utils"

	"go.uber.org/zap"
)

var errUsage = errors.New("usage: reconcile sweep|list|refund|resolve [flags] [args]")

var newService = func(cfg *config.Config) (reconciliation.Service, func(), error) {
	database, err := db.NewDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	svc := reconciliation.NewService(
		reconciliation.NewRepository(database),
		payment.NewRepository(database),
		gateway,
		metrics.NewCheckout(),
	)
	return svc, func() { database.Close() }, nil
}

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	svc, closeFn, err := newService(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect", zap.Error(err))
	}
	defer closeFn()

	if err := run(context.Background(), svc, cfg.ReconcileAfter, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes one subcommand as an operator with admin rights.
func run(ctx context.Context, svc reconciliation.Service, olderThan time.Duration, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	ctx = utils.SetUserContext(ctx, 0, "reconcile-cli", utils.RoleAdmin)

	cmd, args := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var result any
	switch cmd {
	case "sweep":
		age := fs.Duration("older-than", olderThan, "minimum age of an unconsumed payment")
		if err := fs.Parse(args); err != nil {
			return err
		}
		res, err := svc.SweepOrphans(ctx, *age)
		if err != nil {
			return err
		}
		result = res

	case "list":
		limit := fs.Uint64("limit", 50, "maximum cases to print")
		if err := fs.Parse(args); err != nil {
			return err
		}
		cases, err := svc.ListOpen(ctx, *limit)
		if err != nil {
			return err
		}
		result = cases

	case "refund":
		if len(args) != 1 {
			return errUsage
		}
		c, err := svc.Refund(ctx, args[0])
		if err != nil {
			return err
		}
		result = c

	case "resolve":
		if len(args) < 2 {
			return errUsage
		}
		c, err := svc.Resolve(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		result = c

	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
