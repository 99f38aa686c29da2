// Command iqamahctl edits iqamaah ranges and pokes displays from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/config"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/iqamah"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/rangestore"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/realtime"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	rootCmd := newRootCmd(defaultBackends())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type rangeService interface {
	LoadMonth(ctx context.Context, year, month int) (model.MonthSchedule, error)
	AddRange(ctx context.Context, r model.TimeRange) (any, error)
	UpdateRange(ctx context.Context, original, edited model.TimeRange) (any, error)
	RemoveRange(ctx context.Context, r model.TimeRange) (any, error)
}

type notifier interface {
	Reload(ctx context.Context, reason string, timeout time.Duration) (ack.Result, error)
	Announce(ctx context.Context, text string, timeout time.Duration) (ack.Result, error)
}

// backends builds the services a command talks to from the loaded config.
type backends struct {
	ranges   func(cfg *config.Config) rangeService
	notifier func(cfg *config.Config) (notifier, func(), error)
}

func defaultBackends() backends {
	return backends{
		ranges: func(cfg *config.Config) rangeService {
			return iqamah.NewService(rangestore.New(cfg.BackendBaseURL, cfg.BackendTimeout), nil)
		},
		notifier: func(cfg *config.Config) (notifier, func(), error) {
			ch, err := realtime.DialMQTT(realtime.MQTTConfig{
				BrokerURL:   cfg.MQTTBrokerURL,
				ClientID:    cfg.MQTTClientID + "-ctl",
				TopicPrefix: cfg.MQTTTopicPrefix,
				Username:    cfg.MQTTUsername,
				Password:    cfg.MQTTPassword,
			})
			if err != nil {
				return nil, nil, err
			}
			b := ack.NewBroadcaster(ch, ack.Options{Timeout: cfg.AckTimeout, EarlyExit: cfg.AckEarlyExit})
			return b, ch.Close, nil
		},
	}
}

type app struct {
	backends backends
	backend  string
	jsonOut  bool
	cfg      *config.Config
}

func newRootCmd(b backends) *cobra.Command {
	a := &app{backends: b}

	rootCmd := &cobra.Command{
		Use:           "iqamahctl",
		Short:         "Manage iqamaah ranges and display broadcasts",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.backend != "" {
				if err := os.Setenv("BACKEND_BASE_URL", a.backend); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.backend, "backend", "", "range store base URL (overrides BACKEND_BASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print raw JSON")

	rootCmd.AddCommand(newMonthCmd(a))
	rootCmd.AddCommand(newAddCmd(a))
	rootCmd.AddCommand(newUpdateCmd(a))
	rootCmd.AddCommand(newDeleteCmd(a))
	rootCmd.AddCommand(newReloadCmd(a))
	rootCmd.AddCommand(newAnnounceCmd(a))

	return rootCmd
}
