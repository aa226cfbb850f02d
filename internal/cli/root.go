// Package cli wires configuration, the auction service and the HTTP server into the auction-house command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auction "github.com/Bardakor/Auction-House/internal/auctionService"
	"github.com/Bardakor/Auction-House/internal/config"
	"github.com/Bardakor/Auction-House/internal/repository"
	"github.com/Bardakor/Auction-House/internal/server"
	"github.com/Bardakor/Auction-House/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is overridden at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

const shutdownTimeout = 10 * time.Second

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "auction-house",
	Short: "Auction bidding server",
	Long: `auction-house runs the auction HTTP API: auction lifecycle management,
serialized bid acceptance per auction and a background sweeper that
starts and ends auctions on schedule.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	RunE:              runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "auction-house %s\n", Version)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringP("port", "p", "", "listen port, e.g. :8080")
	_ = viper.BindPFlag("server.port", rootCmd.PersistentFlags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	return config.Init(cfgFile)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := utils.SetLevel(cfg.Logging.Level); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newService(cfg)
	if cfg.Seed.Demo {
		if err := seedDemo(svc); err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           server.SetupRouter(svc, cfg.Bidding.LockTimeout),
		ReadHeaderTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:       cfg.Server.RequestTimeout,
		// request contexts end on shutdown so event streams close
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	if cfg.Sweeper.Enabled {
		go svc.RunSweeper(ctx, cfg.Sweeper.Interval)
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Info("server: listening", map[string]any{"addr": srv.Addr, "version": Version})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	utils.Info("server: shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func newService(cfg *config.Config) *auction.AuctionService {
	return auction.NewAuctionService(repository.NewMemoryRepo(), auction.Options{
		LiveOnCreate:       cfg.Auction.LiveOnCreate,
		MaxConflictRetries: cfg.Bidding.MaxConflictRetries,
		SweepParallelism:   cfg.Sweeper.Parallelism,
	})
}
