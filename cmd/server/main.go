package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	emailPkg "shuttleclub/internal/adapters/email"
	web "shuttleclub/internal/adapters/http"
	"shuttleclub/internal/adapters/http/middleware"
	"shuttleclub/internal/adapters/metrics"
	"shuttleclub/internal/adapters/storage"
	memberStore "shuttleclub/internal/adapters/storage/member"
	"shuttleclub/internal/application/orchestrators"
	"shuttleclub/internal/config"
	"shuttleclub/internal/domain/member"
	"shuttleclub/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// backend is a member store that can also write members under their own ids.
type backend interface {
	memberStore.Store
	Insert(ctx context.Context, m member.Member) error
}

// app is the state shared by every subcommand after config is loaded.
type app struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		a          app
	)

	root := &cobra.Command{
		Use:           "club",
		Short:         "Badminton club membership directory",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "hash-password" {
				return nil
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			slog.SetDefault(logger.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./club.yaml if present)")

	root.AddCommand(
		newServeCmd(&a),
		newImportCmd(&a),
		newSeedCmd(&a),
		newCheckCmd(&a),
		newHashPasswordCmd(),
		newVersionCmd(),
	)
	return root
}

// openStore opens the configured backend. The returned close func releases it.
func openStore(cfg config.Config, observer storage.QueryObserver) (backend, func() error, error) {
	switch cfg.Store {
	case config.StoreJSON:
		return memberStore.NewJSONStore(cfg.DataFile), func() error { return nil }, nil
	case config.StoreSQLite:
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := storage.MigrateDB(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		timed := storage.NewTimedDB(db, observer, cfg.SlowQuery())
		return memberStore.NewSQLiteStore(timed), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

func newServeCmd(a *app) *cobra.Command {
	var seedCount int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg, seedCount)
		},
	}
	cmd.Flags().IntVar(&seedCount, "seed", 0, "fill an empty directory with this many synthetic members (development only)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, seedCount int) error {
	rec := metrics.NewRecorder()
	store, closeStore, err := openStore(cfg, rec)
	if err != nil {
		return err
	}
	defer closeStore()

	if seedCount > 0 && !cfg.IsProduction() {
		if _, err := orchestrators.ExecuteSeedMembers(ctx, orchestrators.SeedMembersInput{Count: seedCount, Seed: 1},
			orchestrators.SeedMembersDeps{MemberStore: store}); err != nil {
			return err
		}
	}

	csrfKey, err := web.DecodeCSRFKey(cfg.CSRFKey, cfg.IsProduction())
	if err != nil {
		return err
	}

	mailer := emailPkg.NewSender(cfg.ResendKey, cfg.MailFrom)
	if cfg.ResendKey == "" && len(cfg.NotifyTo) > 0 {
		slog.Warn("email_disabled", "detail", "notify_to is set but resend_key is empty; notifications are dropped")
	}

	admin := middleware.AdminCredentials{User: cfg.AdminUser, PasswordHash: []byte(cfg.AdminPasswordHash)}
	if !admin.Enabled() {
		slog.Info("admin_api_disabled", "detail", "set admin_user and admin_password_hash to enable member edits")
	}

	handler := web.NewMux(ctx, web.Config{
		StaticDir:          cfg.StaticDir,
		ImageBaseURL:       cfg.ImageBaseURL,
		CSRFKey:            csrfKey,
		SecureCookies:      cfg.SecureCookies,
		TrustedOrigins:     cfg.TrustedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		SlowRequest:        cfg.SlowRequest(),
		Admin:              admin,
		Mailer:             mailer,
		NotifyTo:           cfg.NotifyTo,
	}, &web.Stores{MemberStore: store}, rec)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "addr", cfg.Addr, "version", version, "env", cfg.Env,
			"store", cfg.Store, "schema", storage.LatestSchemaVersion())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newImportCmd(a *app) *cobra.Command {
	var (
		format string
		dryRun bool
		update bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import members from a club data file (json) or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if format == "" {
				format = orchestrators.ImportFormatJSON
				if strings.EqualFold(filepath.Ext(path), ".csv") {
					format = orchestrators.ImportFormatCSV
				}
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			store, closeStore, err := openStore(a.cfg, nil)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := orchestrators.ExecuteImportMembers(cmd.Context(), orchestrators.ImportMembersInput{
				Reader:     f,
				Format:     format,
				DryRun:     dryRun,
				UpdateMode: update,
			}, orchestrators.ImportMembersDeps{MemberStore: store})
			if err != nil {
				return err
			}
			printImportResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or csv (default from the file extension)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and count without writing")
	cmd.Flags().BoolVar(&update, "update", false, "overwrite members whose id already exists")
	return cmd
}

func printImportResult(w io.Writer, res orchestrators.ImportMembersResult) {
	prefix := ""
	if res.DryRun {
		prefix = "dry run: "
	}
	fmt.Fprintf(w, "%s%d records, %d created, %d updated, %d skipped, %d invalid\n",
		prefix, res.Total, res.Created, res.Updated, res.Skipped, len(res.Errors))
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  row %d: %s\n", e.Row, e.Message)
	}
	if len(res.Unknown) > 0 {
		fmt.Fprintf(w, "  ignored columns: %s\n", strings.Join(res.Unknown, ", "))
	}
}

func newSeedCmd(a *app) *cobra.Command {
	var (
		count int
		seed  uint64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty directory with synthetic members",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.IsProduction() {
				return errors.New("seed is disabled in production")
			}
			store, closeStore, err := openStore(a.cfg, nil)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := orchestrators.ExecuteSeedMembers(cmd.Context(), orchestrators.SeedMembersInput{Count: count, Seed: seed},
				orchestrators.SeedMembersDeps{MemberStore: store})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d members created\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 12, "number of members to create")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed; the same seed yields the same members")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and verify the store is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(a.cfg, nil)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("store unreachable: %w", err)
			}
			members, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok (env=%s, store=%s), %d members\n", a.cfg.Env, a.cfg.Store, len(members))
			return nil
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [PASSWORD]",
		Short: "Print a bcrypt hash for admin_password_hash",
		Long:  "Print a bcrypt hash for admin_password_hash. The password is read from stdin when not given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			hash, err := middleware.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "club %s (schema %d)\n", version, storage.LatestSchemaVersion())
		},
	}
}
