package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/erazemk/supermercado/internal/api"
	"github.com/erazemk/supermercado/internal/auth"
	"github.com/erazemk/supermercado/internal/catalog"
	"github.com/erazemk/supermercado/internal/config"
	"github.com/erazemk/supermercado/internal/db"
	"github.com/erazemk/supermercado/internal/imaging"
	"github.com/erazemk/supermercado/internal/payment"
	"github.com/erazemk/supermercado/internal/store"
)

const usage = `Usage: supermercado [serve|migrate|token] [flags]

Commands:
  serve     run the HTTP server (default)
  migrate   create or update the database tables and exit
  token     print an admin token for catalog changes

Flags:
  -driver <name>     database driver: sqlite, postgres or mysql (DATABASE_DRIVER)
  -db <dsn>          database path or DSN (DATABASE_URL)
  -addr <host:port>  listen address (HTTP_ADDR, default :8080)
  -images <dir>      product image directory (IMAGE_DIR)
  -front <url>       storefront base URL (FRONT_URL)
  -require-auth      require an admin token for catalog changes (REQUIRE_AUTH)
  -log <path>        rotated log file (LOG_FILE)
  -log-mode <mode>   development or production (LOG_MODE)
`

// setupLogger builds the process logger. Console output always goes to
// stdout; when logPath is set a JSON copy is written to a rotated file.
func setupLogger(mode, logPath string) (*zap.Logger, error) {
	var zapConfig zap.Config
	if mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	if logPath == "" {
		return zapConfig.Build(zap.AddCaller())
	}

	rotated := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    64,
		MaxBackups: 7,
		MaxAge:     7,
	}
	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotated),
			zapConfig.Level,
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			zapConfig.Level,
		),
	)
	return zap.New(core, zap.AddCaller()), nil
}

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	cfg := config.Load()
	fs := flag.NewFlagSet("supermercado", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	subject := fs.String("subject", "admin", "token subject (token command)")
	ttl := fs.Duration("ttl", auth.TokenExpiry, "token lifetime (token command)")
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log, err := setupLogger(cfg.LogMode, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(log)

	err = execute(cmd, cfg, log, *subject, *ttl)
	if errors.Is(err, errUnknownCommand) {
		fs.Usage()
	}
	if err != nil {
		log.Error("command failed", zap.String("command", cmd), zap.Error(err))
	}
	// os.Exit skips deferred calls, so buffered entries are flushed here.
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

var errUnknownCommand = errors.New("unknown command")

// execute runs one subcommand.
func execute(cmd string, cfg config.Config, log *zap.Logger, subject string, ttl time.Duration) error {
	switch cmd {
	case "serve":
		return serve(cfg, log)
	case "migrate":
		return migrate(cfg, log)
	case "token":
		return printToken(cfg, log, subject, ttl)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}
}

// openDatabase connects and brings the schema up to date.
func openDatabase(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		db.Close(gdb)
		return nil, err
	}
	log.Info("database ready", zap.String("driver", cfg.DatabaseDriver))
	return gdb, nil
}

func migrate(cfg config.Config, log *zap.Logger) error {
	gdb, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	return db.Close(gdb)
}

// adminSecret returns the configured secret, or the one stored in the
// database (generated on first use).
func adminSecret(ctx context.Context, cfg config.Config, gdb *gorm.DB) (string, error) {
	if cfg.AdminSecret != "" {
		return cfg.AdminSecret, nil
	}
	return store.GetAdminSecret(ctx, gdb)
}

func printToken(cfg config.Config, log *zap.Logger, subject string, ttl time.Duration) error {
	gdb, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	secret, err := adminSecret(context.Background(), cfg, gdb)
	if err != nil {
		return err
	}
	token, err := auth.GenerateToken(secret, subject, auth.RoleAdmin, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func serve(cfg config.Config, log *zap.Logger) error {
	gdb, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	images, err := imaging.NewDiskStore(cfg.ImageDir, cfg.ImagePublicBase)
	if err != nil {
		return err
	}
	cat := catalog.NewService(gdb, images, log.Named("catalog"))

	var gateway *payment.Gateway
	if cfg.MPAccessToken != "" {
		mp, err := payment.NewMercadoPago(cfg.MPAccessToken)
		if err != nil {
			return err
		}
		gateway = payment.NewGateway(mp, cfg.FrontURL, cfg.MPCurrency, log.Named("payment"))
	} else {
		log.Warn("MP_ACCESS_TOKEN not set, payment endpoint disabled")
	}

	opts := api.Options{
		ImageDir:        cfg.ImageDir,
		ImagePublicBase: cfg.ImagePublicBase,
	}
	if cfg.RequireAuth {
		if opts.AdminSecret, err = adminSecret(context.Background(), cfg, gdb); err != nil {
			return err
		}
		log.Info("admin token required for catalog changes")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(cat, gateway, log.Named("http"), opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		log.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	log.Info("server started", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info("server stopped, closing database")
	return nil
}
