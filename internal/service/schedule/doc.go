// Package schedule writes the scheduled security reminders on cron expressions.
package schedule
