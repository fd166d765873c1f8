package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"pesuacademy/internal/components/chrono"
	"pesuacademy/internal/components/telemetry"
	"pesuacademy/internal/db"
	"pesuacademy/internal/notify"
	"pesuacademy/internal/scrapers/pesu"
	"pesuacademy/internal/snapshot"
	"pesuacademy/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	exportDb  *string
	historyDb *string
	watchDb   *string
	watchCron *string
)

func init() {
	exportDb = exportCmd.Flags().String("db", "", "The sqlite database to write to, defaults to database.file in the config.")
	historyDb = historyCmd.Flags().String("db", "", "The sqlite database to read from, defaults to database.file in the config.")
	watchDb = watchCmd.Flags().String("db", "", "The sqlite database to write to, defaults to database.file in the config.")
	watchCron = watchCmd.Flags().String("cron", "0 20 * * *", "When to take a snapshot, in the portal's timezone.")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
}

func openStore(cfg Config, path string) (snapshot.Store, *sql.DB, error) {
	dbConfig := cfg.Database
	if path != "" {
		dbConfig.File = path
		dbConfig.Url = ""
	}
	if dbConfig.File == "" && dbConfig.Url == "" {
		dbConfig.File = "pesu.db"
	}
	database, err := dbConfig.OpenDB(db.Schema)
	if err != nil {
		return snapshot.Store{}, nil, err
	}
	return snapshot.NewStore(database, chrono.NewStandardImpl(), telemetry.SlogAPI{}), database, nil
}

// recordAttendance snapshots the attendance of the given semester(s) and
// returns the run id of each semester.
func recordAttendance(ctx context.Context, client *pesu.Client, store snapshot.Store, notifier *notify.Notifier, user string, target int) (map[int]string, error) {
	attendance, err := client.Attendance(ctx, target)
	if err != nil {
		return nil, err
	}

	runs := map[int]string{}
	for _, n := range sortedSemesters(attendance) {
		var previous []pesu.Course
		if notifier != nil {
			run, ok, err := store.LatestAttendance(ctx, user, n)
			if err != nil {
				return nil, err
			}
			if ok {
				previous = run.Courses
			}
		}

		runId, err := store.RecordAttendance(ctx, user, n, attendance[n])
		if err != nil {
			return nil, err
		}
		runs[n] = runId

		if notifier != nil {
			count, err := notifier.NotifyAttendance(ctx, user, n, previous, attendance[n])
			if err != nil {
				slog.Warn("failed to send attendance notification", "semester", n, "err", err)
				continue
			}
			if count > 0 {
				slog.Info("sent attendance notification", "semester", n, "shortages", count)
			}
		}
	}
	return runs, nil
}

var exportCmd = &cobra.Command{
	Use:   "export [--db <path>] [--semester <n>]",
	Short: "Records the current attendance into a sqlite database.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client, cfg := mustClient(ctx)
		defer client.Close()

		store, database, err := openStore(cfg, *exportDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()

		runs, err := recordAttendance(ctx, client, store, nil, cfg.Username, *semester)
		if err != nil {
			serviceutil.Fatal("failed to export attendance", err)
		}
		if *jsonOutput {
			printJSON(jsonSemesters(runs))
			return
		}
		t := newTable(table.Row{"Semester", "Run"})
		for _, n := range sortedSemesters(runs) {
			t.AppendRow(table.Row{n, runs[n]})
		}
		t.Render()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <course-code> [--db <path>]",
	Short: "Shows the recorded attendance of a course over time.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		store, database, err := openStore(cfg, *historyDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()

		history, err := store.AttendanceHistory(cmd.Context(), cfg.Username, args[0])
		if err != nil {
			serviceutil.Fatal("failed to read attendance history", err)
		}
		if *jsonOutput {
			printJSON(history)
			return
		}

		t := newTable(table.Row{"Time", "Semester", "Title", "Attendance"})
		for _, p := range history {
			t.AppendRow(table.Row{p.Time.Format(time.DateTime), p.Semester, p.Title, p.Attendance})
		}
		t.Render()
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [--db <path>] [--cron <spec>] [--semester <n>]",
	Short: "Periodically records attendance and emails when it drops below the configured threshold.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext(cmd.Context())

		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		store, database, err := openStore(cfg, *watchDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()

		var notifier *notify.Notifier
		if cfg.Smtp.Server != "" && cfg.Smtp.EmailAddress != "" && len(cfg.NotifyEmails) > 0 {
			n := notify.NewNotifier(
				notify.NewEmailSender(cfg.Smtp, cfg.NotifyEmails),
				cfg.AttendanceThreshold,
				telemetry.SlogAPI{},
			)
			notifier = &n
		} else {
			slog.Info("smtp is not configured, attendance notifications are disabled")
		}

		tel := telemetry.SlogAPI{}
		telemetry.InstrumentPerfStats(ctx, tel)

		run := func() {
			client, err := newClient(ctx, cfg)
			if err != nil {
				tel.ReportBroken("watch.login", err)
				return
			}
			defer client.Close()

			target := *semester
			if target == pesu.AllSemesters {
				// only the current semester changes
				semesters := client.Semesters()
				target = slices.Max(semesters)
			}
			runs, err := recordAttendance(ctx, client, store, notifier, cfg.Username, target)
			if err != nil {
				tel.ReportBroken("watch.record", err)
				return
			}
			slog.Info("recorded attendance", "runs", fmt.Sprint(runs))
		}

		cron := chrono.NewStandardCron(tel)
		err = cron.Cron(*watchCron, run)
		if err != nil {
			serviceutil.Fatal("invalid cron spec", err)
		}
		slog.Info("watching attendance", "cron", *watchCron)

		run()
		<-ctx.Done()
		cron.Stop()
		slog.Info("stopped watching attendance")
	},
}
