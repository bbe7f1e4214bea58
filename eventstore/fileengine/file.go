package fileengine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/eventstore/internal/instrument"
)

const (
	eventsFileName        = "events.jsonl"
	snapshotsDirName      = "snapshots"
	defaultFileMode       = os.FileMode(0o600)
	dirMode               = os.FileMode(0o750)
	engineName            = "file"
	statementKindIO       = "io"
	logMsgTornLineRemoved = "removed torn last line from event log"
	logMsgWriteFailed     = "writing to event log failed"
	logMsgRollbackFailed  = "rolling back partial write failed"
	logMsgSyncFailed      = "syncing event log failed"
	logMsgEncodeFailed    = "encoding event log line failed"
	logAttrOffset         = "offset"
	logAttrFile           = "file"
	logActionAppend       = "append"
	logActionReplay       = "replay"
)

var (
	// ErrCorruptEventLog is returned by Open when a line other than the last one can't be decoded,
	// or when sequence numbers are not gap-free.
	ErrCorruptEventLog = errors.New("event log is corrupt")

	ErrOpeningEventLogFailed = errors.New("opening the event log failed")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// logLine is the on-disk format of one event.
type logLine struct {
	Seq        eventstore.MaxSequenceNumberUint `json:"seq"`
	Type       string                           `json:"type"`
	OccurredAt time.Time                        `json:"occurred_at"`
	Payload    jsoniter.RawMessage              `json:"payload"`
	Metadata   jsoniter.RawMessage              `json:"metadata"`
}

type indexedEvent struct {
	seq    eventstore.MaxSequenceNumberUint
	event  eventstore.StorableEvent
	fields eventstore.PayloadFields
}

// EventStore keeps the complete event log in memory and appends to a JSON-lines file.
// Filters are evaluated in memory with eventstore.Filter.Matches.
//
// It is safe for concurrent use within one process. Two processes must not open the same directory.
type EventStore struct {
	mu       sync.RWMutex
	dir      string
	file     *os.File
	size     int64
	events   []indexedEvent
	closed   bool
	fileMode os.FileMode
	sync     bool
	observer instrument.Observer
}

// Open opens (or creates) the event log in dir and replays it into memory.
func Open(dir string, options ...Option) (*EventStore, error) {
	if dir == "" {
		return nil, eventstore.ErrEmptyDataDirectory
	}

	es := &EventStore{
		dir:      dir,
		fileMode: defaultFileMode,
		sync:     true,
		observer: instrument.Observer{Engine: engineName, StatementKind: statementKindIO},
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Join(dir, snapshotsDirName), dirMode); err != nil {
		return nil, errors.Join(ErrOpeningEventLogFailed, err)
	}

	path := filepath.Join(dir, eventsFileName)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, es.fileMode) //nolint:gosec
	if err != nil {
		return nil, errors.Join(ErrOpeningEventLogFailed, err)
	}

	es.file = file

	if err = es.replay(context.Background()); err != nil {
		_ = file.Close()
		return nil, err
	}

	return es, nil
}

// replay reads the log from the beginning. A last line without a trailing newline or with broken JSON
// is the remainder of an interrupted write: it is truncated away.
func (es *EventStore) replay(ctx context.Context) error {
	start := time.Now()

	if _, err := es.file.Seek(0, io.SeekStart); err != nil {
		return errors.Join(ErrOpeningEventLogFailed, err)
	}

	reader := bufio.NewReader(es.file)
	offset := int64(0)

	for {
		raw, readErr := reader.ReadBytes('\n')
		if len(raw) == 0 && errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return errors.Join(ErrOpeningEventLogFailed, readErr)
		}

		complete := readErr == nil
		event, decodeErr := es.decodeLine(bytes.TrimSpace(raw))

		if decodeErr != nil || !complete {
			if _, peekErr := reader.Peek(1); complete && peekErr == nil {
				// broken line in the middle of the log
				return errors.Join(ErrCorruptEventLog, decodeErr)
			}

			if truncErr := es.file.Truncate(offset); truncErr != nil {
				return errors.Join(ErrOpeningEventLogFailed, truncErr)
			}

			es.observer.LogWarn(ctx, logMsgTornLineRemoved, errors.Join(ErrCorruptEventLog, decodeErr),
				logAttrOffset, offset,
				logAttrFile, es.file.Name())

			break
		}

		es.events = append(es.events, event)
		offset += int64(len(raw))
	}

	es.size = offset
	es.observer.LogStatement(ctx, logActionReplay, es.file.Name(), time.Since(start))

	return nil
}

func (es *EventStore) decodeLine(raw []byte) (indexedEvent, error) {
	var line logLine

	if err := json.Unmarshal(raw, &line); err != nil {
		return indexedEvent{}, err
	}

	expectedSeq := eventstore.MaxSequenceNumberUint(len(es.events) + 1)
	if line.Seq != expectedSeq {
		return indexedEvent{}, ErrCorruptEventLog
	}

	return toIndexedEvent(line)
}

func toIndexedEvent(line logLine) (indexedEvent, error) {
	event, err := eventstore.BuildStorableEvent(line.Type, line.OccurredAt, line.Payload, line.Metadata)
	if err != nil {
		return indexedEvent{}, errors.Join(eventstore.ErrBuildingStorableEventFailed, err)
	}

	fields, err := eventstore.ExtractPayloadFields(line.Payload)
	if err != nil {
		return indexedEvent{}, err
	}

	return indexedEvent{seq: line.Seq, event: event, fields: fields}, nil
}

// Query returns the events matching filter in ascending sequence order,
// together with the highest sequence number among them (0 when there are none).
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	observation, ctx := es.observer.StartQuery(ctx)

	if err := ctx.Err(); err != nil {
		observation.Error(instrument.ErrorTypeDatabaseQuery)
		return eventstore.StorableEvents{}, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	if es.closed {
		observation.Error(instrument.ErrorTypeStoreClosed)
		return eventstore.StorableEvents{}, 0, eventstore.ErrStoreClosed
	}

	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, e := range es.matching(filter) {
		eventStream = append(eventStream, e.event)
		maxSequenceNumber = e.seq
	}

	observation.Success(eventStream, maxSequenceNumber)

	return eventStream, maxSequenceNumber, nil
}

// matching must be called with at least the read lock held.
func (es *EventStore) matching(filter eventstore.Filter) []indexedEvent {
	var result []indexedEvent

	from := int(filter.SequenceNumberHigherThan())
	if from > len(es.events) {
		return result
	}

	for _, e := range es.events[from:] {
		if filter.Matches(e.event.EventType, e.event.OccurredAt, e.fields) {
			result = append(result, e)
		}
	}

	return result
}

// Append writes all events iff the max sequence number of filter still equals expectedMaxSequenceNumber.
// The lines are written with a single write call and synced before they become visible to Query.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	allEvents := eventstore.StorableEvents{event}
	allEvents = append(allEvents, additionalEvents...)

	observation, ctx := es.observer.StartAppend(ctx, allEvents, expectedMaxSequenceNumber)

	if err := ctx.Err(); err != nil {
		observation.Error(instrument.ErrorTypeDatabaseExec)
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	if es.closed {
		observation.Error(instrument.ErrorTypeStoreClosed)
		return eventstore.ErrStoreClosed
	}

	currentMax := eventstore.MaxSequenceNumberUint(0)
	if matched := es.matching(filter); len(matched) > 0 {
		currentMax = matched[len(matched)-1].seq
	}

	if currentMax != expectedMaxSequenceNumber {
		observation.Conflict(0)
		return eventstore.ErrConcurrencyConflict
	}

	buf, indexed, encodeErr := es.encode(allEvents)
	if encodeErr != nil {
		es.observer.LogError(ctx, logMsgEncodeFailed, encodeErr, instrument.LogAttrEventCount, len(allEvents))
		observation.Error(instrument.ErrorTypeBuildQuery)

		return errors.Join(eventstore.ErrAppendingEventFailed, encodeErr)
	}

	if writeErr := es.write(ctx, buf); writeErr != nil {
		observation.Error(instrument.ErrorTypeIO)
		return errors.Join(eventstore.ErrAppendingEventFailed, writeErr)
	}

	es.events = append(es.events, indexed...)
	observation.Success(int64(len(indexed)))

	return nil
}

func (es *EventStore) encode(allEvents eventstore.StorableEvents) ([]byte, []indexedEvent, error) {
	var buf bytes.Buffer
	indexed := make([]indexedEvent, 0, len(allEvents))
	nextSeq := eventstore.MaxSequenceNumberUint(len(es.events))

	for _, e := range allEvents {
		nextSeq++

		line := logLine{
			Seq:        nextSeq,
			Type:       e.EventType,
			OccurredAt: e.OccurredAt,
			Payload:    e.PayloadJSON,
			Metadata:   e.MetadataJSON,
		}

		raw, err := json.Marshal(line)
		if err != nil {
			return nil, nil, err
		}

		fields, err := eventstore.ExtractPayloadFields(e.PayloadJSON)
		if err != nil {
			return nil, nil, err
		}

		buf.Write(raw)
		buf.WriteByte('\n')

		indexed = append(indexed, indexedEvent{seq: nextSeq, event: e, fields: fields})
	}

	return buf.Bytes(), indexed, nil
}

// write must be called with the write lock held. A failed write is rolled back to the previous size,
// so the file never contains a partial append.
func (es *EventStore) write(ctx context.Context, buf []byte) error {
	start := time.Now()

	_, err := es.file.Write(buf)
	if err == nil && es.sync {
		if err = es.file.Sync(); err != nil {
			es.observer.LogError(ctx, logMsgSyncFailed, err, logAttrFile, es.file.Name())
		}
	}

	es.observer.LogStatement(ctx, logActionAppend, es.file.Name(), time.Since(start))

	if err != nil {
		es.observer.LogError(ctx, logMsgWriteFailed, err, logAttrFile, es.file.Name())

		if truncErr := es.file.Truncate(es.size); truncErr != nil {
			es.observer.LogError(ctx, logMsgRollbackFailed, truncErr, logAttrFile, es.file.Name())
		}

		return err
	}

	es.size += int64(len(buf))

	return nil
}

// Close releases the file. Any later call returns eventstore.ErrStoreClosed.
func (es *EventStore) Close() error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.closed {
		return nil
	}

	es.closed = true

	return es.file.Close()
}
