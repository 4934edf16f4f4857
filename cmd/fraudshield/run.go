package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NgigiN/fraudshield/internal/analysis"
	"github.com/NgigiN/fraudshield/internal/appcontext"
	"github.com/NgigiN/fraudshield/internal/config"
	"github.com/NgigiN/fraudshield/internal/discord"
	"github.com/NgigiN/fraudshield/internal/ledger"
	"github.com/NgigiN/fraudshield/internal/mpesa"
	"github.com/NgigiN/fraudshield/internal/predict"
	"github.com/NgigiN/fraudshield/internal/storage"
	"github.com/NgigiN/fraudshield/internal/synthetic"
)

var errUsage = errors.New("usage")

// app holds everything a command needs. One per process.
type app struct {
	cfg      *config.Config
	ledger   *ledger.Ledger
	client   *predict.Client
	analyzer *analysis.Analyzer
	out      io.Writer
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) error {
	logger := appcontext.Logger(ctx)

	switch command {
	case "bot", "analyze", "history", "track", "summary", "clear":
	default:
		return errUsage
	}

	if needsPredictor(command) {
		if err := cfg.RequirePredictor(); err != nil {
			return err
		}
	}

	kv, err := storage.Open(ctx, storage.Options{
		Backend:       cfg.LedgerBackend,
		DBPath:        cfg.LedgerDBPath,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		return fmt.Errorf("open %s ledger backend: %w", cfg.LedgerBackend, err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Error("closing ledger backend", "error", err)
		}
	}()
	logger.Debug("ledger backend ready", "backend", cfg.LedgerBackend, "key", cfg.LedgerKey)

	a, err := newApp(cfg, kv, command)
	if err != nil {
		return err
	}

	switch command {
	case "bot":
		return a.runBot(ctx)
	case "analyze":
		return a.runAnalyze(ctx, args)
	case "history":
		return a.runView(ctx, renderHistory)
	case "track":
		return a.runTrack(ctx, args)
	case "summary":
		return a.runView(ctx, renderSummary)
	default:
		return a.runClear(ctx, args)
	}
}

// needsPredictor reports whether command calls the scoring service.
func needsPredictor(command string) bool {
	return command == "bot" || command == "analyze"
}

// newApp wires the ledger over kv. The prediction client and analyzer are
// built only for commands that score transactions.
func newApp(cfg *config.Config, kv ledger.Backend, command string) (*app, error) {
	a := &app{
		cfg:    cfg,
		ledger: ledger.New(ledger.NewStore(kv, cfg.LedgerKey)),
		out:    os.Stdout,
	}
	if !needsPredictor(command) {
		return a, nil
	}
	if err := cfg.RequirePredictor(); err != nil {
		return nil, err
	}
	client, err := predict.NewClient(nil, cfg.PredictBaseURL, cfg.PredictTimeout)
	if err != nil {
		return nil, err
	}
	a.client = client
	a.analyzer = analysis.New(client, a.ledger)
	return a, nil
}

func (a *app) runBot(ctx context.Context) error {
	logger := appcontext.Logger(ctx)

	bot, err := discord.NewBot(a.cfg, a.ledger, a.analyzer, a.client, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize the discord bot: %w", err)
	}
	if err := bot.Start(); err != nil {
		return err
	}
	defer bot.Stop()

	srv := &http.Server{
		Addr:              a.cfg.HealthAddr,
		Handler:           bot.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("health server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("bot is running")
	return g.Wait()
}

func (a *app) runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	typ := fs.String("type", string(ledger.Transfer), "transaction type: TRANSFER, PAYMENT, CASH_OUT or CASH_IN")
	amount := fs.Float64("amount", 0, "transaction amount")
	oldOrg := fs.Float64("old-org", 0, "sender balance before")
	newOrg := fs.Float64("new-org", 0, "sender balance after")
	oldDest := fs.Float64("old-dest", 0, "receiver balance before")
	newDest := fs.Float64("new-dest", 0, "receiver balance after")
	useSynthetic := fs.Bool("synthetic", false, "generate a random transaction")
	anomalous := fs.Bool("anomalous", false, "with -synthetic, generate an account-drain pattern")
	mpesaMsg := fs.String("mpesa", "", "analyze a pasted M-PESA confirmation")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	var in analysis.Input
	switch {
	case *mpesaMsg != "":
		c, err := mpesa.ParseConfirmation(*mpesaMsg)
		if err != nil {
			return err
		}
		in = analysis.FromConfirmation(c)
	case *useSynthetic:
		in = synthetic.Generate(rand.New(rand.NewSource(time.Now().UnixNano())), *anomalous)
	default:
		in = analysis.Input{
			Type:           ledger.Type(strings.ToUpper(*typ)),
			Amount:         *amount,
			OldBalanceOrg:  *oldOrg,
			NewBalanceOrg:  *newOrg,
			OldBalanceDest: *oldDest,
			NewBalanceDest: *newDest,
		}
	}

	rec, err := a.analyzer.Analyze(ctx, in)
	if err != nil {
		if errors.Is(err, analysis.ErrAnalysisFailed) {
			fmt.Fprintln(a.out, analysis.ErrAnalysisFailed.Error())
		}
		return err
	}
	return renderResult(a.out, rec)
}

func (a *app) runView(ctx context.Context, render func(io.Writer, []ledger.Record) error) error {
	records, err := a.ledger.Query(ctx)
	if err != nil {
		return err
	}
	return render(a.out, records)
}

// runTrack prints the track view once, or every second with -watch until
// the process is interrupted.
func (a *app) runTrack(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("track", flag.ContinueOnError)
	watch := fs.Bool("watch", false, "refresh every second")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := a.runView(ctx, renderTrack); err != nil || !*watch {
		return err
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprintln(a.out)
			if err := a.runView(ctx, renderTrack); err != nil {
				return err
			}
		}
	}
}

func (a *app) runClear(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	if !*yes && !confirm(os.Stdin, a.out, "Delete the whole transaction history? [y/N] ") {
		fmt.Fprintln(a.out, "Aborted.")
		return nil
	}
	if err := a.ledger.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "History cleared.")
	return nil
}
