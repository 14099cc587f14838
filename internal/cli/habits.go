package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/habitpulse/internal/habit"
	"github.com/roach88/habitpulse/internal/reminder"
	"github.com/roach88/habitpulse/internal/streak"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Emoji    string
	Category string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a habit",
		Long: `Add a habit to the top of the list.

Words after "add" are joined into the title.

Examples:
  habitpulse add Morning run
  habitpulse add "Read 20 pages" --emoji 📚 --category Learning`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.close()

			habits, err := a.coll.Add(cmd.Context(), strings.Join(args, " "), opts.Emoji, opts.Category)
			if errors.Is(err, habit.ErrEmptyTitle) {
				_ = a.out.Error(CodeInvalidInput, err.Error(), nil)
				return WrapExitError(ExitCommandError, "cannot add habit", err)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "failed to add habit", err)
			}

			h := habits[0]
			return a.out.Render(h, func(w io.Writer) {
				fmt.Fprintf(w, "Added %s %s (%s) [%s]\n", h.Emoji, h.Title, h.Category, h.ID)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Emoji, "emoji", "", "emoji shown next to the title (default "+habit.DefaultEmoji+")")
	cmd.Flags().StringVar(&opts.Category, "category", "",
		fmt.Sprintf("category, e.g. %s (default %s)", strings.Join(habit.Categories, ", "), habit.DefaultCategory))

	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List habits and today's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			habits := a.coll.Habits()
			if habits == nil {
				habits = []habit.Habit{}
			}
			return a.out.Render(habits, func(w io.Writer) {
				if len(habits) == 0 {
					fmt.Fprintln(w, "No habits yet. Add one with: habitpulse add <title>")
					return
				}
				for _, h := range habits {
					writeHabitLine(w, h)
				}
			})
		},
	}
}

// ToggleResult is the JSON payload of the toggle command.
type ToggleResult struct {
	Habit   habit.Habit    `json:"habit"`
	Message string         `json:"message"`
	Events  []streak.Event `json:"events"`
}

// NewToggleCommand creates the toggle command.
func NewToggleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a habit done for today, or undo it",
		Long: `Mark a habit done for today, or undo today's completion.

The id may be abbreviated to any unique prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			target, err := a.resolveID(args[0])
			if err != nil {
				return err
			}

			habits, events, err := a.coll.Toggle(cmd.Context(), target.ID)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to toggle habit", err)
			}
			h := findHabit(habits, target.ID)

			msg := fmt.Sprintf("Marked %q as not done today", h.Title)
			if h.DoneToday {
				msg = reminder.CompletionToast(h.Title)
			}
			if events == nil {
				events = []streak.Event{}
			}

			return a.out.Render(ToggleResult{Habit: h, Message: msg, Events: events}, func(w io.Writer) {
				fmt.Fprintln(w, msg)
				for _, ev := range events {
					if ev.Kind == streak.EventMilestone {
						fmt.Fprintf(w, "Milestone reached: %s (%d-day streak)\n", ev.Milestone, ev.Streak)
					}
				}
				writeHabitLine(w, h)
			})
		},
	}
}

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Title    string
	Category string
	Emoji    string
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a habit's title, category or emoji",
		Long: `Change a habit's title, category or emoji. Progress is kept.

Examples:
  habitpulse edit 0192 --title "Evening run"
  habitpulse edit 0192 --category Health --emoji 🏃`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Title == "" && opts.Category == "" && opts.Emoji == "" {
				return NewExitError(ExitCommandError, "nothing to change: use --title, --category or --emoji")
			}

			a, err := openApp(cmd, opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.close()

			target, err := a.resolveID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			habits := a.coll.Habits()
			if opts.Title != "" || opts.Category != "" {
				habits, err = a.coll.Edit(ctx, target.ID, opts.Title, opts.Category)
				if errors.Is(err, habit.ErrEmptyTitle) {
					_ = a.out.Error(CodeInvalidInput, err.Error(), nil)
					return WrapExitError(ExitCommandError, "cannot edit habit", err)
				}
				if err != nil {
					return WrapExitError(ExitFailure, "failed to edit habit", err)
				}
			}
			if opts.Emoji != "" {
				habits, err = a.coll.SetEmoji(ctx, target.ID, opts.Emoji)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to edit habit", err)
				}
			}

			h := findHabit(habits, target.ID)
			return a.out.Render(h, func(w io.Writer) {
				fmt.Fprint(w, "Updated ")
				writeHabitLine(w, h)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "new title")
	cmd.Flags().StringVar(&opts.Category, "category", "", "new category")
	cmd.Flags().StringVar(&opts.Emoji, "emoji", "", "new emoji")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a habit and its progress",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			target, err := a.resolveID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.coll.Delete(cmd.Context(), target.ID); err != nil {
				return WrapExitError(ExitFailure, "failed to delete habit", err)
			}

			return a.out.Render(map[string]string{"deleted": target.ID}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted %q\n", target.Title)
			})
		},
	}
}

// HabitProgress is one habit's entry in the stats output.
type HabitProgress struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Streak         int    `json:"streak"`
	CompletionRate int    `json:"completion_rate"`
	Message        string `json:"message"`
}

// StatsResult is the JSON payload of the stats command.
type StatsResult struct {
	habit.Stats
	Motivation string          `json:"motivation"`
	Habits     []HabitProgress `json:"habits"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show progress statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			habits := a.coll.Habits()
			res := StatsResult{
				Stats:  habit.Summarize(habits),
				Habits: make([]HabitProgress, 0, len(habits)),
			}
			res.Motivation = res.Stats.Motivation()
			for _, h := range habits {
				res.Habits = append(res.Habits, HabitProgress{
					ID:             h.ID,
					Title:          h.Title,
					Streak:         h.Streak,
					CompletionRate: h.CompletionRate(),
					Message:        h.StreakMessage(),
				})
			}

			return a.out.Render(res, func(w io.Writer) {
				s := res.Stats
				fmt.Fprintf(w, "Today:          %d/%d done (%d%%)\n", s.CompletedToday, s.TotalHabits, s.CompletionRate)
				fmt.Fprintf(w, "Average streak: %d\n", s.AverageStreak)
				fmt.Fprintf(w, "Longest streak: %d\n", s.LongestStreak)
				fmt.Fprintf(w, "Overall:        %d%% (%d/%d days)\n", s.OverallProgress, s.TotalCompletedDays, s.TotalDays)
				fmt.Fprintln(w, res.Motivation)
				if len(habits) > 0 {
					fmt.Fprintln(w)
				}
				for _, h := range habits {
					fmt.Fprintf(w, "%s %s: %s\n", h.Emoji, h.Title, h.StreakMessage())
				}
			})
		},
	}
}

// writeHabitLine prints one habit in list form.
func writeHabitLine(w io.Writer, h habit.Habit) {
	mark := "[ ]"
	if h.DoneToday {
		mark = "[x]"
	}
	fmt.Fprintf(w, "%s %s %s (%s)  streak %d  %d/%d days %d%%  %s\n",
		mark, h.Emoji, h.Title, h.Category,
		h.Streak, h.CompletedDays, h.TotalDays, h.CompletionRate(), h.ID)
}

func findHabit(habits []habit.Habit, id string) habit.Habit {
	for _, h := range habits {
		if h.ID == id {
			return h
		}
	}
	return habit.Habit{ID: id}
}
