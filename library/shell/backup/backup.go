package backup

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/shell"
)

const (
	keyLayout     = "20060102T150405.000000000Z"
	keyNamePrefix = "events-"
	keyExtension  = ".jsonl"

	defaultBatchSize = 500
	maxLineBytes     = 16 << 20
)

var (
	ErrExportFailed  = errors.New("export failed")
	ErrRestoreFailed = errors.New("restore failed")
	ErrStoreNotEmpty = errors.New("store is not empty")
	ErrNoBackupFound = errors.New("no backup found")
	ErrCorruptExport = errors.New("export is corrupt")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// line is one exported event. Seq is its position in the log.
type line struct {
	Seq        uint                `json:"seq"`
	Type       string              `json:"type"`
	OccurredAt time.Time           `json:"occurred_at"`
	Payload    jsoniter.RawMessage `json:"payload"`
	Metadata   jsoniter.RawMessage `json:"metadata"`
}

// Result describes one export or restore.
type Result struct {
	Key    string
	Events int
}

// ObjectKey is <prefix>/events-<UTC timestamp>.jsonl, or events-<ts>.jsonl without prefix.
func ObjectKey(prefix string, at time.Time) string {
	name := keyNamePrefix + at.UTC().Format(keyLayout) + keyExtension

	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}

	return prefix + "/" + name
}

// LatestKey returns the newest export below prefix.
func LatestKey(ctx context.Context, target Target, prefix string) (string, error) {
	listPrefix := strings.Trim(prefix, "/")
	if listPrefix != "" {
		listPrefix += "/"
	}

	keys, err := target.List(ctx, listPrefix+keyNamePrefix)
	if err != nil {
		return "", err
	}

	for i := len(keys) - 1; i >= 0; i-- {
		if strings.HasSuffix(keys[i], keyExtension) {
			return keys[i], nil
		}
	}

	return "", ErrNoBackupFound
}

// Export writes every event of the store to target under ObjectKey(prefix, now).
// Events that don't convert to a known domain event abort the export.
func Export(ctx context.Context, store shell.QueriesEvents, target Target, prefix string, now time.Time) (Result, error) {
	events, _, err := store.Query(ctx, eventstore.BuildEventFilter().MatchingAnyEvent())
	if err != nil {
		return Result{}, errors.Join(ErrExportFailed, err)
	}

	if _, err = shell.EventEnvelopesFrom(events); err != nil {
		return Result{}, errors.Join(ErrExportFailed, err)
	}

	var buf bytes.Buffer

	for i, event := range events {
		metadata := event.MetadataJSON
		if len(metadata) == 0 {
			metadata = []byte("{}")
		}

		raw, marshalErr := json.Marshal(line{
			Seq:        uint(i + 1),
			Type:       event.EventType,
			OccurredAt: event.OccurredAt,
			Payload:    event.PayloadJSON,
			Metadata:   metadata,
		})
		if marshalErr != nil {
			return Result{}, errors.Join(ErrExportFailed, marshalErr)
		}

		buf.Write(raw)
		buf.WriteByte('\n')
	}

	key := ObjectKey(prefix, now)
	if err = target.Put(ctx, key, buf.Bytes()); err != nil {
		return Result{}, errors.Join(ErrExportFailed, err)
	}

	return Result{Key: key, Events: len(events)}, nil
}

// Restore appends the events of the export at key to an empty store, in batches.
// Each batch is guarded by the max sequence number the store reported after the previous one;
// engines may skip sequence numbers, so it is read back instead of counted.
func Restore(ctx context.Context, store shell.QueriesAndAppendsEvents, target Target, key string) (Result, error) {
	body, err := target.Get(ctx, key)
	if err != nil {
		return Result{}, errors.Join(ErrRestoreFailed, err)
	}

	events, err := decode(body)
	if err != nil {
		return Result{}, errors.Join(ErrRestoreFailed, err)
	}

	filter := eventstore.BuildEventFilter().MatchingAnyEvent()

	existing, maxSeq, err := store.Query(ctx, filter)
	if err != nil {
		return Result{}, errors.Join(ErrRestoreFailed, err)
	}

	if len(existing) > 0 {
		return Result{}, errors.Join(ErrRestoreFailed, ErrStoreNotEmpty)
	}

	for start := 0; start < len(events); start += defaultBatchSize {
		end := min(start+defaultBatchSize, len(events))
		batch := events[start:end]

		if err = store.Append(ctx, filter, maxSeq, batch[0], batch[1:]...); err != nil {
			return Result{}, errors.Join(ErrRestoreFailed, fmt.Errorf("events %d-%d: %w", start+1, end, err))
		}

		if maxSeq, err = maxSequenceAfter(ctx, store, maxSeq); err != nil {
			return Result{}, errors.Join(ErrRestoreFailed, fmt.Errorf("events %d-%d: %w", start+1, end, err))
		}
	}

	return Result{Key: key, Events: len(events)}, nil
}

func maxSequenceAfter(
	ctx context.Context,
	store shell.QueriesAndAppendsEvents,
	after eventstore.MaxSequenceNumberUint,
) (eventstore.MaxSequenceNumberUint, error) {

	appended := eventstore.BuildEventFilter().WithSequenceNumberHigherThan(after).Finalize()

	_, maxSeq, err := store.Query(ctx, appended)
	if err != nil {
		return 0, err
	}

	return max(maxSeq, after), nil
}

func decode(body []byte) (eventstore.StorableEvents, error) {
	var events eventstore.StorableEvents

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, errors.Join(ErrCorruptExport, fmt.Errorf("line %d: %w", lineNumber, err))
		}

		if l.Seq != uint(len(events)+1) {
			return nil, errors.Join(ErrCorruptExport, fmt.Errorf("line %d: expected seq %d, got %d", lineNumber, len(events)+1, l.Seq))
		}

		event, err := eventstore.BuildStorableEvent(l.Type, l.OccurredAt, l.Payload, l.Metadata)
		if err != nil {
			return nil, errors.Join(ErrCorruptExport, fmt.Errorf("line %d: %w", lineNumber, err))
		}

		if _, err = shell.DomainEventFrom(event); err != nil {
			return nil, errors.Join(ErrCorruptExport, fmt.Errorf("line %d: %w", lineNumber, err))
		}

		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Join(ErrCorruptExport, err)
	}

	return events, nil
}
