package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mrk/internal/domain/reconciliation"
	"mrk/internal/domain/timeline"
	"mrk/internal/infrastructure/postgres"
	"mrk/internal/shared/auth"
	"mrk/internal/shared/config"
	"mrk/internal/shared/logger"
)

const usage = `MRK Admin CLI - Maintenance commands for the reconciliation API

Usage:
  admin <command> [options]

Commands:
  hash-password   Print the bcrypt hash for ADMIN_PASSWORD_HASH
  import          Import an OFX statement file into the database
  auto-match      Associate unassigned transactions with projects by memo
  validate        Check pending transactions against realized movements
  ensure-schema   Create the statement table and indexes if missing

Examples:
  # Hash a password read from stdin
  echo -n 'correct-horse' | admin hash-password

  # Import a statement
  admin import --file=extrato.ofx

  # Run both reconciliation steps with a timeout
  admin auto-match --timeout=5m
  admin validate --timeout=5m
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage, "\n")
		os.Exit(1)
	}

	if err := config.LoadDotEnv(); err != nil {
		l := logger.Default()
		l.Fatal().Err(err).Msg("failed to load .env")
	}

	command := os.Args[1]

	switch command {
	case "hash-password":
		runHashPassword(os.Args[2:], os.Stdin, os.Stdout)
	case "import":
		runImport(os.Args[2:])
	case "auto-match":
		runAutoMatch(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "ensure-schema":
		runEnsureSchema(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage, "\n")
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage, "\n")
		os.Exit(1)
	}
}

func runHashPassword(args []string, in io.Reader, out io.Writer) {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	password := fs.String("password", "", "Password to hash (read from stdin when empty)")

	fs.Usage = func() {
		fmt.Println("Usage: admin hash-password [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin hash-password --password=correct-horse")
		fmt.Println("  echo -n 'correct-horse' | admin hash-password")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	hash, err := hashPassword(*password, in)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(out, hash)
}

// hashPassword hashes the given password, or the first line of in when the
// password is empty.
func hashPassword(password string, in io.Reader) (string, error) {
	if password == "" {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return auth.HashPassword(password)
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "Path to the OFX statement")
	timeoutStr := fs.String("timeout", "5m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin import --file=<path> [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Println("  admin import --file=extrato.ofx")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *file == "" && fs.NArg() > 0 {
		*file = fs.Arg(0)
	}
	if *file == "" {
		fmt.Println("Error: must specify --file")
		fs.Usage()
		os.Exit(1)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		l := logger.Default()
		l.Fatal().Err(err).Str("file", *file).Msg("failed to read statement")
	}

	env := openEnv(*timeoutStr)
	defer env.close()

	start := time.Now()
	res, err := env.service.Import(env.ctx, raw)
	if err != nil {
		env.log.Fatal().Err(err).Str("file", *file).Msg("import failed")
	}
	env.log.Info().
		Str("batch_id", res.BatchID).
		Int("new_records", res.NewRecords).
		Dur("elapsed", time.Since(start)).
		Msg("statement imported")
	printJSON(res)
}

func runAutoMatch(args []string) {
	fs := flag.NewFlagSet("auto-match", flag.ExitOnError)
	timeoutStr := fs.String("timeout", "5m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin auto-match [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	env := openEnv(*timeoutStr)
	defer env.close()

	start := time.Now()
	matched, err := env.service.AutoMatch(env.ctx)
	if err != nil {
		env.log.Fatal().Err(err).Msg("auto-match failed")
	}
	env.log.Info().Int("matched", matched).Dur("elapsed", time.Since(start)).Msg("auto-match completed")
	printJSON(map[string]int{"matchedCount": matched})
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin validate [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	env := openEnv(*timeoutStr)
	defer env.close()

	start := time.Now()
	summary, err := env.service.ValidatePending(env.ctx)
	if err != nil {
		env.log.Fatal().Err(err).Msg("validation failed")
	}
	env.log.Info().Dur("elapsed", time.Since(start)).Msg("validation completed")
	printJSON(summary)
}

func runEnsureSchema(args []string) {
	fs := flag.NewFlagSet("ensure-schema", flag.ExitOnError)
	timeoutStr := fs.String("timeout", "1m", "Timeout for the operation (e.g., 30s, 5m)")

	fs.Usage = func() {
		fmt.Println("Usage: admin ensure-schema [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	env := openEnv(*timeoutStr)
	defer env.close()

	if err := postgres.EnsureSchema(env.ctx, env.db); err != nil {
		env.log.Fatal().Err(err).Msg("failed to ensure schema")
	}
	env.log.Info().Msg("database schema ensured")
}

// adminEnv is what the database-backed commands share.
type adminEnv struct {
	ctx     context.Context
	cancel  context.CancelFunc
	log     zerolog.Logger
	db      *postgres.DB
	service *reconciliation.Service
}

func openEnv(timeoutStr string) *adminEnv {
	boot := logger.Default()

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		boot.Fatal().Err(err).Str("timeout", timeoutStr).Msg("invalid timeout format")
	}

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format).With().Str("service", "mrk-admin").Logger()
	logger.SetDefault(log)

	db, err := postgres.New(cfg.Database.ConnectionString(), postgres.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("connected to database")

	ctx, cancel := context.WithTimeout(logger.WithContext(context.Background(), log), timeout)

	clock := timeline.ZoneClock{Location: cfg.Server.Location()}
	projects := postgres.NewProjectRepository(db)
	service := reconciliation.NewService(
		postgres.NewStatementRepository(db),
		postgres.NewMovementRepository(db),
		projects,
		clock,
	)

	return &adminEnv{
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
		db:      db,
		service: service,
	}
}

func (e *adminEnv) close() {
	e.cancel()
	e.db.Close()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}
