// Package classify derives topics and a PARA category from document text.
//
// Both operations are oracle-backed and never fail hard. They return an
// ai.Result whose Value is always usable; when the oracle errors or replies
// with something unusable, Value is the documented fallback (["General"]
// for topics, Resources for the category) and Err records why.
package classify
