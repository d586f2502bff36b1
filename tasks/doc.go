// Package tasks extracts actionable items from documents and manages them
// afterwards.
//
// Extractor asks the oracle for a JSON array of {title, due_date_text}
// objects and turns each usable element into a pending core.Task, resolving
// due dates with a dates.Resolver. Service lists tasks, changes their status
// and finds upcoming deadlines. Reminder polls Service on an interval and
// hands upcoming tasks to a Notifier.
package tasks
