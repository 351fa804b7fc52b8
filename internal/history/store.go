// Package history persists completed scan reports to a local bbolt database
// so past runs can be listed, re-rendered and exported.
package history

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/nexscan/nexscan-cli/internal/scanner"
)

const (
	bucketReports = "reports"
	bucketIndex   = "report_index"
)

// ErrNotFound is returned when no record exists for the requested ID.
var ErrNotFound = errors.New("report not found")

// Record is one stored scan run. Report holds the full report JSON so older
// records survive model changes.
type Record struct {
	ID        string          `json:"id"`
	Target    string          `json:"target"`
	StartedAt time.Time       `json:"started_at"`
	Modules   []string        `json:"modules"`
	Report    json.RawMessage `json:"report"`
}

// DecodeReport unmarshals the stored report JSON back into the report model.
func (r *Record) DecodeReport() (*scanner.Report, error) {
	report := &scanner.Report{}
	if err := json.Unmarshal(r.Report, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Store wraps a bbolt database holding scan records.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketReports)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketIndex)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Save stores a completed report under a fresh ID and returns the record.
func (s *Store) Save(report *scanner.Report) (*Record, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}

	modules := make([]string, 0, len(report.Results))
	for _, res := range report.Results {
		modules = append(modules, string(res.Module))
	}

	rec := &Record{
		ID:        uuid.New().String(),
		Target:    report.Target.Host,
		StartedAt: report.StartedAt,
		Modules:   modules,
		Report:    raw,
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := tx.Bucket([]byte(bucketReports)).Put([]byte(rec.ID), data); err != nil {
			return err
		}

		// target -> []record_id index
		index := tx.Bucket([]byte(bucketIndex))
		key := []byte(rec.Target)
		var ids []string
		if existing := index.Get(key); existing != nil {
			if err := json.Unmarshal(existing, &ids); err != nil {
				return err
			}
		}
		ids = append(ids, rec.ID)
		data, err = json.Marshal(ids)
		if err != nil {
			return err
		}
		return index.Put(key, data)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Get retrieves one record by ID.
func (s *Store) Get(id string) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketReports)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		rec = &Record{}
		return json.Unmarshal(data, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns records newest first. An empty target lists every record;
// otherwise only runs against that host.
func (s *Store) List(target string) ([]*Record, error) {
	var records []*Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		reports := tx.Bucket([]byte(bucketReports))

		collect := func(id string) error {
			data := reports.Get([]byte(id))
			if data == nil {
				return nil
			}
			rec := &Record{}
			if err := json.Unmarshal(data, rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		}

		if target == "" {
			return reports.ForEach(func(k, v []byte) error {
				return collect(string(k))
			})
		}

		data := tx.Bucket([]byte(bucketIndex)).Get([]byte(target))
		if data == nil {
			return nil
		}
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		for _, id := range ids {
			if err := collect(id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records, nil
}
