// pomneshctl — консольный клиент бэкенда pomnesh: логин, привязка VK,
// список диалогов и лента вложений. Данные печатаются в stdout как JSON,
// логи уходят в stderr.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pomnesh/pomnesh-go/internal/config"
	"github.com/pomnesh/pomnesh-go/internal/credstore"
	"github.com/pomnesh/pomnesh-go/internal/transport"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// app — собранные один раз на запуск зависимости команд.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	creds  credstore.Store
	client *transport.Client
}

func main() {
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	if err := newRootCmd().ExecuteContext(rootCtx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	a := &app{}

	root := &cobra.Command{
		Use:           "pomneshctl",
		Short:         "Клиент pomnesh: диалоги и вложения VK из терминала",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			lg := setupLogger(cfg.Env)
			slog.SetDefault(lg)

			creds, err := openStore(cfg)
			if err != nil {
				return err
			}

			client, err := transport.New(transport.Options{
				BaseURL:    cfg.API.BaseURL,
				HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
				Creds:      creds,
				AccessTTL:  cfg.Credentials.AccessTTL,
				RefreshTTL: cfg.Credentials.RefreshTTL,
				UserIDTTL:  cfg.Credentials.UserIDTTL,
			})
			if err != nil {
				return err
			}

			a.cfg, a.log, a.creds, a.client = cfg, lg, creds, client
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.creds != nil {
				if err := a.creds.Close(); err != nil {
					a.log.Warn("credstore_close_failed", slog.String("err", err.Error()))
				}
			}
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "путь к файлу конфигурации")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newMeCmd(a),
		newLinkVKCmd(a),
		newChatsCmd(a),
		newAttachmentsCmd(a),
	)

	return root
}

// openStore выбирает бэкенд хранилища учётных данных по конфигурации.
func openStore(cfg *config.Config) (credstore.Store, error) {
	switch cfg.Credentials.Backend {
	case "memory":
		return credstore.NewMemory(), nil
	case "redis":
		return credstore.NewRedis(cfg.Credentials.RedisURL, "")
	case "file", "":
		path := cfg.Credentials.Path
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(home, ".pomnesh", "credentials.json")
		}
		return credstore.NewFile(path)
	default:
		return nil, fmt.Errorf("unknown credentials backend %q", cfg.Credentials.Backend)
	}
}

// printJSON — единый вывод результата команды в stdout.
func printJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
