package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/habitpulse/internal/reminder"
)

// NotifyStatus is the JSON payload of "notify status".
type NotifyStatus struct {
	Settings     reminder.Settings `json:"settings"`
	Notifier     string            `json:"notifier"`
	Enabled      bool              `json:"enabled"`
	NextReminder *time.Time        `json:"next_reminder,omitempty"`
}

// NewNotifyCommand creates the notify command group.
func NewNotifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Inspect and send notifications",
		Long: `Inspect notification settings and send notifications on demand.

Notification settings live in the reminders section of .habitpulse.yaml.`,
	}

	cmd.AddCommand(newNotifyStatusCommand(rootOpts))
	cmd.AddCommand(newNotifyTestCommand(rootOpts))
	cmd.AddCommand(newNotifyRemindCommand(rootOpts))
	cmd.AddCommand(newNotifyWarnCommand(rootOpts))

	return cmd
}

func newNotifyStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show notification settings and the next reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			status := NotifyStatus{
				Settings: a.reminders.Settings(),
				Notifier: a.notifier,
				Enabled:  a.reminders.Enabled(),
			}
			if next, ok := a.reminders.NextReminder(time.Now()); ok {
				status.NextReminder = &next
			}

			return a.out.Render(status, func(w io.Writer) {
				s := status.Settings
				fmt.Fprintf(w, "Notifications:  %s\n", onOff(status.Enabled))
				fmt.Fprintf(w, "Delivery:       %s\n", status.Notifier)
				fmt.Fprintf(w, "Daily reminder: %s at %s\n", onOff(s.DailyReminder), s.ReminderTime)
				fmt.Fprintf(w, "Streak warning: %s\n", onOff(s.StreakWarning))
				fmt.Fprintf(w, "Sound:          %s\n", onOff(s.Sound))
				if status.NextReminder != nil {
					fmt.Fprintf(w, "Next reminder:  %s\n", status.NextReminder.Format("Mon Jan 2 15:04"))
				}
			})
		},
	}
}

func newNotifyTestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.reminders.SendTest(cmd.Context()); err != nil {
				if errors.Is(err, reminder.ErrDisabled) {
					_ = a.out.Error(CodeDisabled, "notifications are disabled; set reminders.enabled in the config", nil)
				}
				return WrapExitError(ExitFailure, "test notification not delivered", err)
			}
			return a.out.Render(map[string]bool{"sent": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Test notification sent")
			})
		},
	}
}

func newNotifyRemindCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send the daily reminder now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			sent := a.reminders.SendDailyReminder(cmd.Context(), a.coll.Habits())
			return a.out.Render(map[string]bool{"sent": sent}, func(w io.Writer) {
				if sent {
					fmt.Fprintln(w, "Daily reminder sent")
				} else {
					fmt.Fprintln(w, "Nothing sent (notifications off or no habits)")
				}
			})
		},
	}
}

func newNotifyWarnCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "warn",
		Short: "Send streak warnings for habits at risk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			n := a.reminders.CheckStreakWarnings(cmd.Context(), a.coll.Habits())
			return a.out.Render(map[string]int{"sent": n}, func(w io.Writer) {
				fmt.Fprintf(w, "%d streak warning(s) sent\n", n)
			})
		},
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
