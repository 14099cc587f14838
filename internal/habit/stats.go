package habit

import (
	"fmt"
	"math"
)

// Stats aggregates a collection for the progress view.
type Stats struct {
	TotalHabits        int `json:"total_habits"`
	CompletedToday     int `json:"completed_today"`
	CompletionRate     int `json:"completion_rate"` // percent of habits done today
	AverageStreak      int `json:"average_streak"`
	LongestStreak      int `json:"longest_streak"`
	TotalCompletedDays int `json:"total_completed_days"`
	TotalDays          int `json:"total_days"`
	OverallProgress    int `json:"overall_progress"` // percent of tracked days completed
}

// Summarize computes aggregate statistics. Percentages and the average are
// rounded half away from zero.
func Summarize(habits []Habit) Stats {
	s := Stats{TotalHabits: len(habits)}
	streakSum := 0
	for _, h := range habits {
		if h.DoneToday {
			s.CompletedToday++
		}
		streakSum += h.Streak
		if h.Streak > s.LongestStreak {
			s.LongestStreak = h.Streak
		}
		s.TotalCompletedDays += h.CompletedDays
		s.TotalDays += h.TotalDays
	}
	s.CompletionRate = percent(s.CompletedToday, s.TotalHabits)
	if s.TotalHabits > 0 {
		s.AverageStreak = int(math.Round(float64(streakSum) / float64(s.TotalHabits)))
	}
	s.OverallProgress = percent(s.TotalCompletedDays, s.TotalDays)
	return s
}

// Motivation returns the encouragement line for the current completion rate.
func (s Stats) Motivation() string {
	switch {
	case s.TotalHabits == 0:
		return "Start your habit journey today!"
	case s.CompletionRate == 100:
		return "Perfect day! You're on fire! 🔥"
	case s.CompletionRate >= 80:
		return "Amazing progress! Keep it up!"
	case s.CompletionRate >= 60:
		return "Great work! You're building momentum!"
	case s.CompletionRate >= 40:
		return "Good start! Every step counts!"
	default:
		return "Don't give up! Tomorrow is a new opportunity!"
	}
}

// StreakMessage describes a habit's current streak.
func (h Habit) StreakMessage() string {
	switch {
	case h.Streak == 0:
		return "Start your journey today!"
	case h.Streak == 1:
		return "Great start! Keep it up!"
	case h.Streak < 7:
		return fmt.Sprintf("%d days strong!", h.Streak)
	case h.Streak < 30:
		return fmt.Sprintf("Amazing! %d day streak!", h.Streak)
	default:
		return fmt.Sprintf("Incredible! %d day streak! 🔥", h.Streak)
	}
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
