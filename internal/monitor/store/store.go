package store

import (
	"context"
	"errors"
)

// Record is one flat activity-log row as stored. Keys are the source
// system's column names (Time, User, Document, Tab, Description); extra
// keys ride along untouched and are ignored downstream.
type Record map[string]interface{}

// Entry is one stored log payload: the display file name it was uploaded
// under plus its raw rows. Field names match the uploaded JSON shape.
type Entry struct {
	FileName string   `json:"fileName"`
	Data     []Record `json:"data"`
}

// ErrNotFound is returned by Read when the collection is absent.
// Callers must distinguish an absent collection from an empty one.
var ErrNotFound = errors.New("store: collection not found")

// Store is the narrow document-store boundary the pipeline talks through.
// Collections map opaque entry keys to Entries; reads return the whole
// collection at once (payloads are bounded, one log file per entry).
type Store interface {
	Read(ctx context.Context, collection string) (map[string]Entry, error)
	Write(ctx context.Context, collection, key string, entry Entry) error
	Clear(ctx context.Context, collection string) error
	Close() error
}

// copyEntry returns a deep copy so callers can never alias stored state.
func copyEntry(e Entry) Entry {
	out := Entry{FileName: e.FileName}
	if e.Data == nil {
		return out
	}
	out.Data = make([]Record, len(e.Data))
	for i, rec := range e.Data {
		cp := make(Record, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out.Data[i] = cp
	}
	return out
}
