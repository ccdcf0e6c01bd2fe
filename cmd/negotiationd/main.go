package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/accordo-ai/negotiation-core/pkg/config"
	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/dealock"
	"github.com/accordo-ai/negotiation-core/pkg/engine"
	"github.com/accordo-ai/negotiation-core/pkg/parser"
	"github.com/accordo-ai/negotiation-core/pkg/phrasing"
	"github.com/accordo-ai/negotiation-core/pkg/store"

	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // SQLite driver
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint, split out for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "replay":
		return runReplay(cfg, args[2:], stdout, stderr)
	case "preview":
		return runPreview(cfg, args[2:], stdout, stderr)
	case "validate":
		return runValidate(cfg, args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "negotiationd - negotiation decision engine")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  negotiationd replay -template <file|name> [-transcript <file>] [-deal <id>]")
	fmt.Fprintln(w, "      Feed vendor messages (one per line) through a fresh negotiation")
	fmt.Fprintln(w, "      and print each decision. Reads stdin when no transcript is given.")
	fmt.Fprintln(w, "  negotiationd preview -template <file|name> -message <text>")
	fmt.Fprintln(w, "      Parse one vendor message and print its utility breakdown.")
	fmt.Fprintln(w, "  negotiationd validate -template <file|name>")
	fmt.Fprintln(w, "      Validate a negotiation template.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "A bare template name resolves against TEMPLATES_DIR.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  DATABASE_URL   postgres DSN; replay persists there instead of memory")
	fmt.Fprintln(w, "  SQLITE_PATH    sqlite file; used when DATABASE_URL is unset")
	fmt.Fprintln(w, "  REDIS_URL      distributed deal lock for multi-instance replay")
	fmt.Fprintln(w, "  TEMPLATES_DIR  template directory for bare names (default: templates)")
	fmt.Fprintln(w, "  LOG_LEVEL      DEBUG, INFO, WARN or ERROR (default: INFO)")
	fmt.Fprintln(w, "  LLM_API_KEY    enables LLM phrasing of responses")
}

func runReplay(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	templateRef := fs.String("template", "", "negotiation template YAML file or name")
	transcriptPath := fs.String("transcript", "", "vendor transcript, one message per line")
	dealID := fs.String("deal", "", "deal id (default: random)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *templateRef == "" {
		fmt.Fprintln(stderr, "replay: -template is required")
		return 2
	}

	tpl, err := loadTemplate(cfg, *templateRef)
	if err != nil {
		fmt.Fprintf(stderr, "replay: %v\n", err)
		return 1
	}

	ctx := context.Background()
	dealStore, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "replay: %v\n", err)
		return 1
	}
	defer cleanup()

	opts := []engine.Option{engine.WithPhraser(buildPhraser(cfg))}
	locker, err := buildLocker(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "replay: %v\n", err)
		return 1
	}
	if locker != nil {
		opts = append(opts, engine.WithLocker(locker))
	}
	eng := engine.New(dealStore, opts...)

	id := *dealID
	if id == "" {
		id = uuid.NewString()
	}
	if err := eng.CreateDeal(ctx, id, *tpl); err != nil {
		fmt.Fprintf(stderr, "replay: create deal: %v\n", err)
		return 1
	}

	in := os.Stdin
	if *transcriptPath != "" {
		f, err := os.Open(*transcriptPath)
		if err != nil {
			fmt.Fprintf(stderr, "replay: %v\n", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		result, err := eng.ProcessVendorTurn(ctx, id, line)
		if err != nil {
			fmt.Fprintf(stderr, "replay: turn failed: %v\n", err)
			return 1
		}
		printTurn(stdout, line, result)
		if result.UpdatedState.Status.Terminal() {
			fmt.Fprintf(stdout, "negotiation closed: %s after %d rounds\n",
				result.UpdatedState.Status, result.UpdatedState.Round)
			break
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "replay: read transcript: %v\n", err)
		return 1
	}
	return 0
}

func printTurn(w io.Writer, vendorMsg string, r *engine.TurnResult) {
	fmt.Fprintf(w, "vendor> %s\n", vendorMsg)
	if r.Decision.UtilityScore != nil {
		fmt.Fprintf(w, "[round %d] %s (utility %.3f)\n",
			r.Decision.Round, r.Decision.Action, *r.Decision.UtilityScore)
	} else {
		fmt.Fprintf(w, "[round %d] %s\n", r.Decision.Round, r.Decision.Action)
	}
	for _, reason := range r.Decision.Reasons {
		fmt.Fprintf(w, "  - %s\n", reason)
	}
	fmt.Fprintf(w, "engine> %s\n\n", r.ResponseText)
}

func runPreview(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	templateRef := fs.String("template", "", "negotiation template YAML file or name")
	message := fs.String("message", "", "vendor message text")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *templateRef == "" || *message == "" {
		fmt.Fprintln(stderr, "preview: -template and -message are required")
		return 2
	}

	tpl, err := loadTemplate(cfg, *templateRef)
	if err != nil {
		fmt.Fprintf(stderr, "preview: %v\n", err)
		return 1
	}

	offer := parser.Parse(*message, tpl.Currency)
	eng := engine.New(store.NewMemoryStore())
	result, err := eng.ComputeUtility(tpl, &offer)
	if err != nil {
		fmt.Fprintf(stderr, "preview: %v\n", err)
		return 1
	}

	out, _ := json.MarshalIndent(map[string]any{
		"parsed_offer": offer,
		"utility":      result,
	}, "", "  ")
	fmt.Fprintln(stdout, string(out))
	return 0
}

func runValidate(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	templateRef := fs.String("template", "", "negotiation template YAML file or name")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *templateRef == "" {
		fmt.Fprintln(stderr, "validate: -template is required")
		return 2
	}

	tpl, err := loadTemplate(cfg, *templateRef)
	if err != nil {
		fmt.Fprintf(stderr, "invalid: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "valid: %d parameters, thresholds %.2f/%.2f/%.2f\n",
		len(tpl.Parameters), tpl.AcceptThreshold, tpl.EscalateThreshold, tpl.WalkawayThreshold)
	return 0
}

// loadTemplate resolves -template: a path is read directly, a bare name is
// looked up in the configured templates directory.
func loadTemplate(cfg *config.Config, ref string) (*contracts.NegotiationConfig, error) {
	if strings.ContainsAny(ref, `/\`) ||
		strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, err
		}
		return config.ParseTemplate(data)
	}
	return config.LoadTemplate(cfg.TemplatesDir, ref)
}

func openStore(ctx context.Context, cfg *config.Config) (store.DealStore, func(), error) {
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		s := store.NewPostgresStore(db)
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return s, func() { db.Close() }, nil
	}
	if cfg.SQLitePath != "" {
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		s, err := store.NewSQLiteStore(db)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return s, func() { db.Close() }, nil
	}
	return store.NewMemoryStore(), func() {}, nil
}

// buildLocker returns the distributed deal locker when REDIS_URL is set,
// nil for the default in-process mutex.
func buildLocker(cfg *config.Config) (dealock.Locker, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return dealock.NewRedisLocker(redis.NewClient(redisOpts), 0), nil
}

func buildPhraser(cfg *config.Config) *phrasing.Phraser {
	if cfg.LLMAPIKey == "" {
		slog.Info("LLM_API_KEY unset, responses use templates")
		return phrasing.NewPhraser(nil, 0)
	}
	client := phrasing.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	return phrasing.NewPhraser(client, 0)
}
