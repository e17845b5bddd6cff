package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hireloop/refcheck/internal/ingest"
	"github.com/hireloop/refcheck/internal/logger"
	"github.com/hireloop/refcheck/internal/secrets"
	"github.com/hireloop/refcheck/internal/store"
	"github.com/hireloop/refcheck/internal/verdict"
	"github.com/hireloop/refcheck/internal/verdict/gemini"
	"github.com/hireloop/refcheck/internal/webhook"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address, overrides the config file")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting refcheck", zap.String("version", version))

	st, err := store.Open(config.Store.Path)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err), zap.String("path", config.Store.Path))
	}
	defer st.Close()

	secret := resolveWebhookSecret(config, logger)
	scorer := newScorer(ctx, config.Classifier, logger)

	processor := ingest.New(st, scorer, logger)
	handler := webhook.NewHandler(secret, processor, st, logger)

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := &http.Server{Addr: config.Listen, Handler: mux}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("address", config.Listen))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// resolveWebhookSecret loads the shared secret for inbound webhooks. A
// missing secret disables the check; the server logs that stance loudly.
func resolveWebhookSecret(config *Config, logger *zap.Logger) string {
	if config.Webhook == nil {
		logger.Warn("no webhook secret configured, accepting unauthenticated events")
		return ""
	}

	secret, err := secrets.Load(secrets.Source{
		Name:  "webhook secret",
		Value: config.Webhook.Secret,
		File:  config.Webhook.SecretFile,
	})
	if err != nil {
		logger.Warn("no webhook secret configured, accepting unauthenticated events", zap.Error(err))
		return ""
	}
	return secret
}

// newScorer builds the verdict scorer. Without usable classifier credentials
// the scorer runs with no generator and every terminal event fails closed
// with the missing-credentials source.
func newScorer(ctx context.Context, config *ClassifierConfig, logger *zap.Logger) verdict.Classifier {
	if config == nil || !config.Enabled || config.Gemini == nil {
		logger.Warn("classifier disabled, terminal events will fail closed")
		return verdict.NewScorer(nil, logger, 0)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		logger.Warn("gemini api key is not available, terminal events will fail closed",
			zap.Error(err),
			zap.String("hint", "set classifier.gemini.api-key-file or GEMINI_API_KEY"),
		)
		return verdict.NewScorer(nil, logger, 0)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, config.Gemini.Model)
	if err != nil {
		logger.Warn("building the gemini generator failed, terminal events will fail closed", zap.Error(err))
		return verdict.NewScorer(nil, logger, 0)
	}

	scorerLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)

	logger.Info(fmt.Sprintf("classifier ready: %s", strings.TrimSpace(generator.Model())))

	return verdict.NewScorer(generator, scorerLogger, config.Gemini.MaxLogLength)
}
