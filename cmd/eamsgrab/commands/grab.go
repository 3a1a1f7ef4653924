package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"eamsgrab/internal/components/chrono"
	"eamsgrab/internal/components/osutil"
	"eamsgrab/internal/config"
	"eamsgrab/internal/eams"
	"eamsgrab/internal/grabber"

	"github.com/spf13/cobra"
)

func init() {
	grabCmd.Flags().StringVar(&courses, "courses", "", "Catalog indices or course ids to elect, separated by commas.")
	grabCmd.Flags().StringVar(&overrides.OpenTime, "open-at", "", "When the election opens, as YYYY-MM-DD HH:MM:SS, or \""+config.OpenNow+"\" if it already has.")
	rootCmd.AddCommand(grabCmd)
}

var grabCmd = &cobra.Command{
	Use:   "grab [--courses <tokens>] [--open-at <time>]",
	Short: "Waits for the election to open and keeps submitting the selected courses until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		tel := newTelemetry()

		openTime, err := cfg.ParseOpenTime()
		if err != nil {
			osutil.Fatal("invalid open time", err)
		}

		client := connect(ctx, cfg, tel)
		catalog, err := client.Resolve(ctx, cfg.ProfileId)
		if err != nil {
			osutil.Fatal("failed to resolve catalog", err)
		}
		fmt.Fprintln(os.Stdout, renderCatalog(catalog))

		chosen := eams.MapSelections(tel, cfg.Courses, catalog)
		if len(chosen) == 0 {
			slog.Info(eams.ErrNothingSelected.Error() + ", nothing to do")
			return
		}

		timing, err := cfg.ParseTiming()
		if err != nil {
			osutil.Fatal("invalid timing", err)
		}

		var notifier grabber.Notifier
		if cfg.Notify.Enabled() {
			notifier = grabber.MailNotifier{
				Smtp: grabber.SmtpConfig{
					Server:       cfg.Notify.Smtp.Server,
					Port:         cfg.Notify.Smtp.Port,
					EmailAddress: cfg.Notify.Smtp.EmailAddress,
					Password:     cfg.Notify.Smtp.Password,
				},
				To: cfg.Notify.To,
			}
		}

		slog.Info("selected courses", "courses", chosen, "profile", catalog.ProfileId, "param", catalog.Param)
		scheduler := grabber.NewScheduler(
			client,
			grabber.Options{
				BaseUrl:      client.BaseUrl,
				ProfileId:    catalog.ProfileId,
				Param:        catalog.Param,
				CourseIds:    chosen,
				OpenTime:     openTime,
				MinGap:       timing.MinGap,
				Backoff:      timing.Backoff,
				PassInterval: timing.PassInterval,
			},
			chrono.NewStandardClock(),
			tel,
			notifier,
		)

		err = scheduler.Run(ctx)
		if errors.Is(err, context.Canceled) {
			slog.Info("interrupted, exiting")
			return
		}
		if err != nil {
			osutil.Fatal("scheduler stopped", err)
		}
	},
}
