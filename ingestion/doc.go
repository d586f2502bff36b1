// Package ingestion turns source files into classified, indexed documents.
//
// The Pipeline runs one document at a time through a fixed sequence of
// stages:
//   - Extracting text and recording the document
//   - Classifying it into a PARA category and extracting topics
//   - Linking topics and accumulating their frequency
//   - Chunking and writing chunks to the vector index
//   - Extracting tasks
//
// The stage reached is persisted on the document after every transition.
// Oracle failures degrade to fallback values and never abort ingestion;
// extraction failures and empty documents abort before anything is stored.
//
// IngestFolder and Watcher feed whole directory trees through the same
// pipeline, strictly one file at a time.
package ingestion
