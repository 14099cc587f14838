// Package reminder decides which habit notifications are due and delivers
// them through a pluggable Notifier.
//
// The decision functions (DailySummary, StreakWarnings) are pure. Service wraps
// them with the user's Settings, a delivery Permission and a Notifier, and is
// constructed explicitly by whoever needs it; there is no package-level
// instance.
//
// Delivery is best effort. A failed notification is logged and counted, never
// propagated into habit mutations.
package reminder
