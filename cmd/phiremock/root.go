package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phiremock/phiremock/internal/storage"
	"github.com/phiremock/phiremock/pkg/admin"
	"github.com/phiremock/phiremock/pkg/config"
	"github.com/phiremock/phiremock/pkg/engine"
	"github.com/phiremock/phiremock/pkg/journal"
	"github.com/phiremock/phiremock/pkg/logging"
	"github.com/phiremock/phiremock/pkg/scenario"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// newRootCommand builds the CLI. The root command starts the server.
func newRootCommand() *cobra.Command {
	var (
		flagIP              string
		flagPort            int
		flagExpectationsDir string
		flagDebug           bool
		flagConfigPath      string
		flagFactoryClass    string
		flagCertificate     string
		flagCertificateKey  string
		flagCertPassphrase  string
	)

	root := &cobra.Command{
		Use:           "phiremock",
		Short:         "HTTP mock server driven by request/response expectations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Discover(flagConfigPath)
			if err != nil {
				return err
			}

			// Explicit flags override config file values.
			flags := cmd.Flags()
			if flags.Changed("ip") {
				cfg.IP = flagIP
			}
			if flags.Changed("port") {
				cfg.Port = flagPort
			}
			if flags.Changed("expectations-dir") {
				cfg.ExpectationsDir = flagExpectationsDir
			}
			if flags.Changed("debug") {
				cfg.Debug = flagDebug
			}
			if flags.Changed("factory-class") {
				cfg.FactoryClass = flagFactoryClass
			}
			if flags.Changed("certificate") {
				cfg.Certificate = flagCertificate
			}
			if flags.Changed("certificate-key") {
				cfg.CertificateKey = flagCertificateKey
			}
			if flags.Changed("cert-passphrase") {
				cfg.CertPassphrase = flagCertPassphrase
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	root.Flags().StringVar(&flagIP, "ip", config.DefaultIP, "bind address")
	root.Flags().IntVarP(&flagPort, "port", "p", config.DefaultPort, "bind port")
	root.Flags().StringVarP(&flagExpectationsDir, "expectations-dir", "e", "", "directory scanned once at boot for *.json expectation files")
	root.Flags().BoolVarP(&flagDebug, "debug", "d", false, "raise log verbosity")
	root.Flags().StringVar(&flagConfigPath, "config-path", ".", "directory in which to seek a config file")
	root.Flags().StringVar(&flagFactoryClass, "factory-class", "", "dependency-injection hook (accepted for compatibility, ignored)")
	root.Flags().StringVar(&flagCertificate, "certificate", "", "TLS certificate file")
	root.Flags().StringVar(&flagCertificateKey, "certificate-key", "", "TLS certificate key file")
	root.Flags().StringVar(&flagCertPassphrase, "cert-passphrase", "", "passphrase for the TLS key")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("phiremock %s (%s)\n", version, commit)
		},
	})

	return root
}

// runServer wires the stores, handlers, and listener, loads the bootstrap
// expectations, and blocks until a shutdown signal arrives.
func runServer(cfg *config.Config) error {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	log := logging.NewWithLevel(level)

	if cfg.FactoryClass != "" {
		log.Warn("factory-class is not supported and will be ignored", "value", cfg.FactoryClass)
	}

	store := storage.NewInMemoryExpectationStore()
	scenarios := scenario.NewStore()
	jrnl := journal.NewStore(cfg.JournalCapacity)

	responder := engine.NewResponder(time.Duration(cfg.ProxyTimeout)*time.Second, "", log.With("subcomponent", "responder"))
	adminAPI := admin.New(store, scenarios, jrnl, log.With("subcomponent", "admin"))
	handler := engine.NewHandler(store, scenarios, jrnl, adminAPI, responder)
	handler.SetLogger(log.With("subcomponent", "handler"))

	if cfg.ExpectationsDir != "" {
		if err := loadBootExpectations(config.NewDirSource(cfg.ExpectationsDir), store, log); err != nil {
			return err
		}
	}

	srv := engine.NewServer(cfg, handler, log)
	if err := srv.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", "signal", sig.String())

	return srv.Stop(context.Background())
}

// loadBootExpectations inserts every expectation from the source into the
// store.
func loadBootExpectations(source config.ExpectationSource, store storage.ExpectationStore, log *slog.Logger) error {
	expectations, err := source.LoadAll()
	if err != nil {
		return err
	}
	for _, e := range expectations {
		id, err := store.Add(e)
		if err != nil {
			return fmt.Errorf("load expectation: %w", err)
		}
		log.Debug("expectation loaded", "id", id)
	}
	log.Info("expectations loaded", "count", len(expectations))
	return nil
}
