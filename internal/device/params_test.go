package device

import (
	"testing"
)

func intPtr(i int64) *Value {
	v := IntValue(i)
	return &v
}

func schemaWithBounds() []ParamType {
	return []ParamType{
		{Name: "level", Kind: KindInt, Min: intPtr(0), Max: intPtr(10), Default: intPtr(3)},
		{Name: "label", Kind: KindString},
	}
}

func TestVerifyParamsMaterialisesDefaults(t *testing.T) {
	effective, verr := VerifyParams(schemaWithBounds(), ParamList{
		{Name: "label", Value: StringValue("kitchen")},
	}, true)
	if !verr.OK() {
		t.Fatalf("verify failed: %v", verr)
	}

	if !effective.Has("level") {
		t.Fatal("expected default for level to be materialised")
	}
	if i, _ := effective.Value("level").Int(); i != 3 {
		t.Errorf("level = %d, want 3", i)
	}
}

func TestVerifyParamsMissing(t *testing.T) {
	_, verr := VerifyParams(schemaWithBounds(), ParamList{
		{Name: "level", Value: IntValue(5)},
	}, true)
	if verr.Code != ErrorMissingParameter {
		t.Fatalf("code = %v, want MissingParameter", verr.Code)
	}
}

func TestVerifyParamsRange(t *testing.T) {
	_, verr := VerifyParams(schemaWithBounds(), ParamList{
		{Name: "level", Value: IntValue(42)},
	}, false)
	if verr.Code != ErrorInvalidParameter {
		t.Fatalf("code = %v, want InvalidParameter", verr.Code)
	}

	_, verr = VerifyParams(schemaWithBounds(), ParamList{
		{Name: "level", Value: IntValue(-1)},
	}, false)
	if verr.Code != ErrorInvalidParameter {
		t.Fatalf("code = %v, want InvalidParameter", verr.Code)
	}
}

func TestVerifyParamsUnknown(t *testing.T) {
	_, verr := VerifyParams(schemaWithBounds(), ParamList{
		{Name: "frequency", Value: IntValue(1)},
	}, false)
	if verr.Code != ErrorInvalidParameter {
		t.Fatalf("code = %v, want InvalidParameter", verr.Code)
	}
}

func TestVerifyParamsDuplicateName(t *testing.T) {
	_, verr := VerifyParams(schemaWithBounds(), ParamList{
		{Name: "level", Value: IntValue(1)},
		{Name: "level", Value: IntValue(2)},
	}, false)
	if verr.Code != ErrorInvalidParameter {
		t.Fatalf("code = %v, want InvalidParameter", verr.Code)
	}
}

func TestVerifyParamsAllowedSet(t *testing.T) {
	schema := []ParamType{
		{Name: "mode", Kind: KindString, Allowed: []Value{StringValue("eco"), StringValue("boost")}},
	}

	if _, verr := VerifyParams(schema, ParamList{{Name: "mode", Value: StringValue("eco")}}, false); !verr.OK() {
		t.Fatalf("allowed value rejected: %v", verr)
	}
	if _, verr := VerifyParams(schema, ParamList{{Name: "mode", Value: StringValue("off")}}, false); verr.Code != ErrorInvalidParameter {
		t.Fatalf("code = %v, want InvalidParameter", verr.Code)
	}
}

func TestVerifyParamsConvertsKinds(t *testing.T) {
	// JSON numbers arrive as doubles; the effective list carries the
	// schema's declared kind.
	effective, verr := VerifyParams(schemaWithBounds(), ParamList{
		{Name: "level", Value: DoubleValue(7)},
		{Name: "label", Value: StringValue("x")},
	}, true)
	if !verr.OK() {
		t.Fatalf("verify failed: %v", verr)
	}
	if effective.Value("level").Kind() != KindInt {
		t.Errorf("kind = %v, want int", effective.Value("level").Kind())
	}
}

// Any list that passes a requireAll verify contains exactly one param per
// declared ParamType.
func TestVerifyParamsCompleteness(t *testing.T) {
	schema := schemaWithBounds()
	effective, verr := VerifyParams(schema, ParamList{
		{Name: "label", Value: StringValue("x")},
	}, true)
	if !verr.OK() {
		t.Fatalf("verify failed: %v", verr)
	}
	if len(effective) != len(schema) {
		t.Fatalf("effective has %d params, want %d", len(effective), len(schema))
	}
	for _, pt := range schema {
		if !effective.Has(pt.Name) {
			t.Errorf("missing %q in effective list", pt.Name)
		}
	}
	if err := effective.checkUnique(); err != nil {
		t.Errorf("effective list has duplicates: %v", err)
	}
}

func TestParamListSetAndEqual(t *testing.T) {
	base := ParamList{{Name: "a", Value: IntValue(1)}}
	updated := base.Set("a", IntValue(2)).Set("b", BoolValue(true))

	if v, _ := updated.Value("a").Int(); v != 2 {
		t.Errorf("a = %d, want 2", v)
	}
	if !updated.Has("b") {
		t.Error("expected b to be present")
	}

	if !base.Equal(ParamList{{Name: "a", Value: IntValue(1)}}) {
		t.Error("expected equal lists")
	}
	if base.Equal(updated) {
		t.Error("expected unequal lists")
	}
}

func TestDeviceStateChangeHook(t *testing.T) {
	stID := StateTypeID("11111111-1111-1111-1111-111111111111")
	dev := NewDevice(NewDeviceID(), PluginID("p"), ClassID("c"))
	dev.InitStates([]StateType{{ID: stID, Name: "power", Kind: KindBool, Default: BoolValue(false)}})

	var gotID StateTypeID
	var gotValue Value
	dev.SetStateChangeFunc(func(_ *Device, id StateTypeID, v Value) {
		gotID = id
		gotValue = v
	})

	if !dev.SetStateValue(stID, BoolValue(true)) {
		t.Fatal("expected state type to exist")
	}
	if gotID != stID {
		t.Errorf("hook state type = %v, want %v", gotID, stID)
	}
	if b, _ := gotValue.Bool(); !b {
		t.Error("hook value = false, want true")
	}

	if v, ok := dev.StateValue(stID); !ok {
		t.Fatal("state missing after update")
	} else if b, _ := v.Bool(); !b {
		t.Error("state value = false, want true")
	}

	if dev.SetStateValue(StateTypeID("missing"), BoolValue(true)) {
		t.Error("expected unknown state type to be rejected")
	}
}
