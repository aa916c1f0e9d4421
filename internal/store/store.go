package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/hearth-core/internal/device"
)

// Sentinel errors for the settings store.
var (
	// ErrDeviceNotFound is returned when a device group does not exist.
	ErrDeviceNotFound = errors.New("store: device not found")
)

// Group prefixes of the hierarchical key space. The layout is stable across
// restarts and releases:
//
//	DeviceConfig/<device-uuid>/
//	    devicename    : string
//	    deviceClassId : uuid
//	    pluginid      : uuid
//	    Params/<name> : primitive
//	PluginConfig/<plugin-uuid>/<name> : primitive
const (
	deviceConfigGroup = "DeviceConfig"
	pluginConfigGroup = "PluginConfig"
	paramsSubgroup    = "Params"

	keyDeviceName = "devicename"
	keyClassID    = "deviceClassId"
	keyPluginID   = "pluginid"
)

// DeviceRecord is the persisted form of a configured device.
type DeviceRecord struct {
	ID       device.DeviceID
	ClassID  device.ClassID
	PluginID device.PluginID
	Name     string
	Params   device.ParamList
}

// Store is a hierarchical typed key-value store on SQLite.
//
// Keys live under slash-separated groups; every value carries its kind
// discriminator so primitives round-trip losslessly. Writes are transactional
// at per-device granularity: a device is either fully written or absent.
type Store struct {
	db *sql.DB
}

// New creates a store over an open SQLite connection.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the settings schema if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS settings (
			grp   TEXT NOT NULL,
			key   TEXT NOT NULL,
			kind  TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (grp, key)
		)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating settings schema: %w", err)
	}
	return nil
}

// SaveDevice writes a device record, replacing any previous record for the
// same id in a single transaction.
func (s *Store) SaveDevice(ctx context.Context, rec DeviceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	grp := deviceConfigGroup + "/" + rec.ID.String()
	if err := deleteGroup(ctx, tx, grp); err != nil {
		return err
	}

	if err := setValue(ctx, tx, grp, keyDeviceName, device.StringValue(rec.Name)); err != nil {
		return err
	}
	if err := setValue(ctx, tx, grp, keyClassID, device.UUIDValue(rec.ClassID.String())); err != nil {
		return err
	}
	if err := setValue(ctx, tx, grp, keyPluginID, device.UUIDValue(rec.PluginID.String())); err != nil {
		return err
	}

	paramsGrp := grp + "/" + paramsSubgroup
	for _, p := range rec.Params {
		if err := setValue(ctx, tx, paramsGrp, p.Name, p.Value); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing device record: %w", err)
	}
	return nil
}

// DeleteDevice removes a device record and all its params.
func (s *Store) DeleteDevice(ctx context.Context, id device.DeviceID) error {
	grp := deviceConfigGroup + "/" + id.String()
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM settings WHERE grp = ? OR grp LIKE ?", grp, grp+"/%")
	if err != nil {
		return fmt.Errorf("deleting device record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// LoadDevices reads every persisted device record. Records with malformed
// identity keys are skipped rather than failing the whole load.
func (s *Store) LoadDevices(ctx context.Context) ([]DeviceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT grp, key, kind, value FROM settings WHERE grp LIKE ? ORDER BY grp, key",
		deviceConfigGroup+"/%")
	if err != nil {
		return nil, fmt.Errorf("querying device records: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*DeviceRecord)
	var order []string

	for rows.Next() {
		var grp, key, kind, text string
		if err := rows.Scan(&grp, &key, &kind, &text); err != nil {
			return nil, fmt.Errorf("scanning settings row: %w", err)
		}

		rest := strings.TrimPrefix(grp, deviceConfigGroup+"/")
		idStr, sub, _ := strings.Cut(rest, "/")
		rec, ok := byID[idStr]
		if !ok {
			id, err := device.ParseDeviceID(idStr)
			if err != nil {
				continue
			}
			rec = &DeviceRecord{ID: id}
			byID[idStr] = rec
			order = append(order, idStr)
		}

		value, err := device.DecodeText(device.ValueKind(kind), text)
		if err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", grp, key, err)
		}

		if sub == paramsSubgroup {
			rec.Params = append(rec.Params, device.Param{Name: key, Value: value})
			continue
		}

		switch key {
		case keyDeviceName:
			rec.Name, _ = value.Text()
		case keyClassID:
			s, _ := value.Text()
			rec.ClassID = device.ClassID(s)
		case keyPluginID:
			s, _ := value.Text()
			rec.PluginID = device.PluginID(s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings rows: %w", err)
	}

	records := make([]DeviceRecord, 0, len(order))
	for _, idStr := range order {
		records = append(records, *byID[idStr])
	}
	return records, nil
}

// SavePluginConfig writes a plugin's configuration, replacing any previous
// entries in one transaction.
func (s *Store) SavePluginConfig(ctx context.Context, id device.PluginID, params device.ParamList) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	grp := pluginConfigGroup + "/" + id.String()
	if err := deleteGroup(ctx, tx, grp); err != nil {
		return err
	}
	for _, p := range params {
		if err := setValue(ctx, tx, grp, p.Name, p.Value); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing plugin config: %w", err)
	}
	return nil
}

// LoadPluginConfig reads a plugin's stored configuration. An absent config
// is not an error; it returns an empty list.
func (s *Store) LoadPluginConfig(ctx context.Context, id device.PluginID) (device.ParamList, error) {
	grp := pluginConfigGroup + "/" + id.String()
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, kind, value FROM settings WHERE grp = ? ORDER BY key", grp)
	if err != nil {
		return nil, fmt.Errorf("querying plugin config: %w", err)
	}
	defer rows.Close()

	var params device.ParamList
	for rows.Next() {
		var key, kind, text string
		if err := rows.Scan(&key, &kind, &text); err != nil {
			return nil, fmt.Errorf("scanning plugin config row: %w", err)
		}
		value, err := device.DecodeText(device.ValueKind(kind), text)
		if err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", grp, key, err)
		}
		params = append(params, device.Param{Name: key, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plugin config rows: %w", err)
	}
	return params, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setValue(ctx context.Context, ex execer, grp, key string, value device.Value) error {
	text, err := value.EncodeText()
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", grp, key, err)
	}
	_, err = ex.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (grp, key, kind, value) VALUES (?, ?, ?, ?)",
		grp, key, string(value.Kind()), text)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", grp, key, err)
	}
	return nil
}

func deleteGroup(ctx context.Context, ex execer, grp string) error {
	_, err := ex.ExecContext(ctx,
		"DELETE FROM settings WHERE grp = ? OR grp LIKE ?", grp, grp+"/%")
	if err != nil {
		return fmt.Errorf("clearing group %s: %w", grp, err)
	}
	return nil
}
