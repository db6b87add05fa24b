// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb indexes committed events in sqlite for querying.
package eventdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/metrics"
	"github.com/shadefi/shade/shade"
)

var (
	metricWriteDuration = metrics.LazyLoadHistogram("eventdb_write_duration_ms", metrics.BucketHTTPReqs)
	metricQueryCounter  = metrics.LazyLoadCounterVec("eventdb_query_count", []string{"order"})
)

// EventDB is an events.Sink backed by sqlite.
type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

var _ events.Sink = (*EventDB)(nil)

// New create or open event db at given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	// a memory database lives as long as its connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &EventDB{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem create an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close close the event db.
func (db *EventDB) Close() error {
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

func (db *EventDB) DriverVersion() string {
	return db.driverVersion
}

// Publish writes evs in one sqlite transaction. Replaying an already
// stored sequence number overwrites the row.
func (db *EventDB) Publish(ctx context.Context, evs []*events.Event) (err error) {
	if len(evs) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		if err == nil {
			metricWriteDuration().Observe(time.Since(start).Milliseconds())
		}
	}()

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO event(seq, kind, subject, actor, time, changes) VALUES(?,?,?,?,?,?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range evs {
		changes, err := json.Marshal(ev.Changes)
		if err != nil {
			return errors.Wrapf(err, "encode changes of event %d", ev.Seq)
		}
		if _, err := stmt.ExecContext(ctx,
			ev.Seq,
			string(ev.Kind),
			ev.Subject.Bytes(),
			ev.Actor.Bytes(),
			ev.Time,
			changes,
		); err != nil {
			return errors.Wrapf(err, "insert event %d", ev.Seq)
		}
	}
	return tx.Commit()
}

// LastSeq returns the highest stored sequence number, zero when empty.
func (db *EventDB) LastSeq(ctx context.Context) (uint64, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM event").Scan(&seq); err != nil {
		return 0, err
	}
	return uint64(seq.Int64), nil
}

func (db *EventDB) FilterEvents(ctx context.Context, filter *Filter) ([]*events.Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	var args []any
	stmt := "SELECT * FROM event WHERE 1"

	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		stmt += " AND kind = ? "
	}
	if filter.Subject != nil {
		args = append(args, filter.Subject.Bytes())
		stmt += " AND subject = ? "
	}
	if filter.Actor != nil {
		args = append(args, filter.Actor.Bytes())
		stmt += " AND actor = ? "
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND seq >= ? "
		if filter.Range.To > 0 {
			args = append(args, filter.Range.To)
			stmt += " AND seq <= ? "
		}
	}

	order := filter.Order
	if order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		order = ASC
		stmt += " ORDER BY seq ASC "
	}
	metricQueryCounter().AddWithLabel(1, map[string]string{"order": string(order)})

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *EventDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*events.Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evs []*events.Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq     uint64
			kind    string
			subject []byte
			actor   []byte
			t       int64
			changes []byte
		)
		if err := rows.Scan(&seq, &kind, &subject, &actor, &t, &changes); err != nil {
			return nil, err
		}
		ev := &events.Event{
			Seq:     seq,
			Kind:    events.Kind(kind),
			Subject: shade.BytesToBytes32(subject),
			Actor:   shade.BytesToAddress(actor),
			Time:    t,
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &ev.Changes); err != nil {
				return nil, errors.Wrapf(err, "decode changes of event %d", seq)
			}
		}
		evs = append(evs, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return evs, nil
}
