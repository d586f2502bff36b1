package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/personalmind/core"
)

// Key prefixes for different data types. Every prefix ends with ':' so no
// prefix is a prefix of another.
const (
	documentPrefix     = "doc:"
	documentPathPrefix = "docpath:"
	documentSeq        = "seq:doc"
	topicPrefix        = "topic:"
	docTopicPrefix     = "doctopic:"
	topicDocPrefix     = "topicdoc:"
	taskPrefix         = "task:"
	taskDuePrefix      = "taskdue:"
	taskDocPrefix      = "taskdoc:"
	taskSeq            = "seq:task"
	chunkPrefix        = "chunk:"
)

// composeKey appends big-endian uint64 parts to prefix so lexicographic
// order matches numeric order.
func composeKey(prefix string, parts ...uint64) []byte {
	buf := make([]byte, len(prefix)+8*len(parts))
	offset := copy(buf, prefix)
	for _, p := range parts {
		binary.BigEndian.PutUint64(buf[offset:], p)
		offset += 8
	}
	return buf
}

// trailingID reads the big-endian ID stored in the last 8 bytes of key.
func trailingID(key []byte) core.ID {
	if len(key) < 8 {
		return 0
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

func makeDocumentKey(id core.ID) []byte {
	return composeKey(documentPrefix, uint64(id))
}

func makeDocumentPathKey(path string) []byte {
	return []byte(documentPathPrefix + path)
}

func makeTopicKey(id core.ID) []byte {
	return composeKey(topicPrefix, uint64(id))
}

// makeDocTopicKey generates a composite key for the document->topic link.
// Format: prefix:documentID:topicID
func makeDocTopicKey(documentID, topicID core.ID) []byte {
	return composeKey(docTopicPrefix, uint64(documentID), uint64(topicID))
}

// makeTopicDocKey generates the reverse topic->document link.
// Format: prefix:topicID:documentID
func makeTopicDocKey(topicID, documentID core.ID) []byte {
	return composeKey(topicDocPrefix, uint64(topicID), uint64(documentID))
}

func makeTaskKey(id core.ID) []byte {
	return composeKey(taskPrefix, uint64(id))
}

// makeTaskDueKey generates a composite key for the due-date index.
// Format: prefix:dueMicros:taskID
func makeTaskDueKey(due time.Time, id core.ID) []byte {
	return composeKey(taskDuePrefix, uint64(due.UnixMicro()), uint64(id))
}

// makeTaskDocKey generates a composite key for the document->task index.
// Format: prefix:documentID:taskID
func makeTaskDocKey(documentID, taskID core.ID) []byte {
	return composeKey(taskDocPrefix, uint64(documentID), uint64(taskID))
}

// makeChunkKey generates the primary key for a chunk.
// Format: prefix:documentID:ordinal
func makeChunkKey(documentID core.ID, ordinal int) []byte {
	return composeKey(chunkPrefix, uint64(documentID), uint64(ordinal))
}
