package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/hearth-core/internal/device"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := New(db)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("initialising store: %v", err)
	}
	return s
}

func testRecord() DeviceRecord {
	return DeviceRecord{
		ID:       device.DeviceID("5b14ad10-7b1c-4b90-9f1e-6a2d3c4b5e01"),
		ClassID:  device.ClassID("aa6c2e30-1111-4f4e-b2d3-9e8f7a6b5c02"),
		PluginID: device.PluginID("cc7d3f40-2222-4a5b-8c9d-0e1f2a3b4c03"),
		Name:     "Living Room Switch",
		Params: device.ParamList{
			{Name: "channel", Value: device.IntValue(3)},
			{Name: "label", Value: device.StringValue("sofa = left, \"quoted\"")},
			{Name: "dimmable", Value: device.BoolValue(true)},
		},
	}
}

func TestDeviceRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	rec := testRecord()

	if err := s.SaveDevice(ctx, rec); err != nil {
		t.Fatalf("saving device: %v", err)
	}

	records, err := s.LoadDevices(ctx)
	if err != nil {
		t.Fatalf("loading devices: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	got := records[0]
	if got.ID != rec.ID || got.ClassID != rec.ClassID || got.PluginID != rec.PluginID || got.Name != rec.Name {
		t.Errorf("identity mismatch: got %+v", got)
	}
	if !got.Params.Equal(rec.Params) {
		t.Errorf("params = %v, want %v", got.Params, rec.Params)
	}
}

func TestSaveDeviceReplacesPreviousRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	rec := testRecord()

	if err := s.SaveDevice(ctx, rec); err != nil {
		t.Fatalf("saving device: %v", err)
	}

	rec.Name = "Renamed"
	rec.Params = device.ParamList{{Name: "channel", Value: device.IntValue(9)}}
	if err := s.SaveDevice(ctx, rec); err != nil {
		t.Fatalf("re-saving device: %v", err)
	}

	records, err := s.LoadDevices(ctx)
	if err != nil {
		t.Fatalf("loading devices: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Name != "Renamed" {
		t.Errorf("name = %q, want %q", records[0].Name, "Renamed")
	}
	if len(records[0].Params) != 1 {
		t.Errorf("params = %v, want only the new channel param", records[0].Params)
	}
}

func TestDeleteDevice(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	rec := testRecord()

	if err := s.SaveDevice(ctx, rec); err != nil {
		t.Fatalf("saving device: %v", err)
	}
	if err := s.DeleteDevice(ctx, rec.ID); err != nil {
		t.Fatalf("deleting device: %v", err)
	}

	records, err := s.LoadDevices(ctx)
	if err != nil {
		t.Fatalf("loading devices: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records after delete, want 0", len(records))
	}

	if err := s.DeleteDevice(ctx, rec.ID); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("second delete = %v, want ErrDeviceNotFound", err)
	}
}

func TestPluginConfigRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := device.PluginID("cc7d3f40-2222-4a5b-8c9d-0e1f2a3b4c03")

	params := device.ParamList{
		{Name: "interval", Value: device.IntValue(60)},
		{Name: "host", Value: device.StringValue("bridge.local")},
	}
	if err := s.SavePluginConfig(ctx, id, params); err != nil {
		t.Fatalf("saving plugin config: %v", err)
	}

	got, err := s.LoadPluginConfig(ctx, id)
	if err != nil {
		t.Fatalf("loading plugin config: %v", err)
	}
	if !got.Equal(params) {
		t.Errorf("config = %v, want %v", got, params)
	}

	// Replacing removes stale keys.
	replacement := device.ParamList{{Name: "interval", Value: device.IntValue(5)}}
	if err := s.SavePluginConfig(ctx, id, replacement); err != nil {
		t.Fatalf("replacing plugin config: %v", err)
	}
	got, err = s.LoadPluginConfig(ctx, id)
	if err != nil {
		t.Fatalf("reloading plugin config: %v", err)
	}
	if !got.Equal(replacement) {
		t.Errorf("config = %v, want %v", got, replacement)
	}
}

func TestLoadPluginConfigAbsent(t *testing.T) {
	s := newTestStore(t)
	got, err := s.LoadPluginConfig(context.Background(), device.PluginID("nope"))
	if err != nil {
		t.Fatalf("loading absent config: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("config = %v, want empty", got)
	}
}

func TestKindsSurviveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := testRecord()
	rec.Params = device.ParamList{
		{Name: "id", Value: device.UUIDValue("2b630062-5cf2-4b30-9d91-4a7ec30e1b11")},
		{Name: "tags", Value: device.StringListValue([]string{"a", "b"})},
		{Name: "ratio", Value: device.DoubleValue(0.75)},
		{Name: "colour", Value: device.ColorValue("#334455")},
	}
	if err := s.SaveDevice(ctx, rec); err != nil {
		t.Fatalf("saving device: %v", err)
	}

	records, err := s.LoadDevices(ctx)
	if err != nil {
		t.Fatalf("loading devices: %v", err)
	}
	got := records[0].Params
	for _, p := range rec.Params {
		if got.Value(p.Name).Kind() != p.Value.Kind() {
			t.Errorf("param %q kind = %v, want %v", p.Name, got.Value(p.Name).Kind(), p.Value.Kind())
		}
	}
}
