package device

import (
	"fmt"
	"strings"
)

// ParamType is a schema slot: it names a parameter, pins its primitive kind
// and optionally constrains the permitted values.
//
// ParamTypes describe device parameters, discovery parameters, action
// parameters and plugin configuration entries.
type ParamType struct {
	ID   ParamTypeID
	Name string
	Kind ValueKind

	// Min and Max bound ordered kinds. Nil means unbounded.
	Min *Value
	Max *Value

	// Allowed restricts the value to an enumerated set. Empty means any.
	Allowed []Value

	// Default is materialised by the validator when the param is absent.
	Default *Value
}

// Param is a named value.
type Param struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// ParamList is an order-irrelevant mapping from name to value with unique
// names. The zero value is an empty list.
type ParamList []Param

// Value returns the value for name, or the zero Value if absent.
func (l ParamList) Value(name string) Value {
	for _, p := range l {
		if p.Name == name {
			return p.Value
		}
	}
	return Value{}
}

// Has reports whether the list contains a param with the given name.
func (l ParamList) Has(name string) bool {
	for _, p := range l {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Set returns a copy of the list with name set to value, replacing any
// existing entry.
func (l ParamList) Set(name string, value Value) ParamList {
	out := make(ParamList, 0, len(l)+1)
	replaced := false
	for _, p := range l {
		if p.Name == name {
			out = append(out, Param{Name: name, Value: value})
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append(out, Param{Name: name, Value: value})
	}
	return out
}

// Equal reports whether two lists carry the same params, ignoring order.
func (l ParamList) Equal(other ParamList) bool {
	if len(l) != len(other) {
		return false
	}
	for _, p := range l {
		if !other.Has(p.Name) || !p.Value.Equal(other.Value(p.Name)) {
			return false
		}
	}
	return true
}

// checkUnique returns an error if the list carries duplicate names.
func (l ParamList) checkUnique() error {
	seen := make(map[string]struct{}, len(l))
	for _, p := range l {
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateParam, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// VerifyParams validates params against schema and returns the effective
// param list used by downstream calls.
//
// Every given param must name a ParamType in the schema and satisfy its kind
// (conversions per Value.ConvertTo are applied and the converted value is
// kept), its min/max bounds and its allowed set. With requireAll, schema
// entries without a matching param either materialise their default into the
// effective list or fail with MissingParameter.
func VerifyParams(schema []ParamType, params ParamList, requireAll bool) (ParamList, Error) {
	if err := params.checkUnique(); err != nil {
		return nil, NewError(ErrorInvalidParameter, "%v", err)
	}

	effective := make(ParamList, 0, len(schema))
	for _, p := range params {
		pt, ok := findParamType(schema, p.Name)
		if !ok {
			return nil, NewError(ErrorInvalidParameter, "unknown parameter %q", p.Name)
		}
		value, verr := verifyParam(pt, p.Value)
		if !verr.OK() {
			return nil, verr
		}
		effective = append(effective, Param{Name: p.Name, Value: value})
	}

	if !requireAll {
		return effective, NoError
	}

	for _, pt := range schema {
		if effective.Has(pt.Name) {
			continue
		}
		if pt.Default != nil {
			effective = append(effective, Param{Name: pt.Name, Value: *pt.Default})
			continue
		}
		return nil, NewError(ErrorMissingParameter, "missing parameter %q", pt.Name)
	}
	return effective, NoError
}

// verifyParam checks a single value against its ParamType and returns the
// kind-converted value.
func verifyParam(pt ParamType, value Value) (Value, Error) {
	converted, ok := value.ConvertTo(pt.Kind)
	if !ok {
		return Value{}, NewError(ErrorInvalidParameter,
			"parameter %q: value of kind %q is not convertible to %q", pt.Name, value.Kind(), pt.Kind)
	}

	if pt.Min != nil {
		if c, ok := converted.Compare(*pt.Min); !ok || c < 0 {
			return Value{}, NewError(ErrorInvalidParameter,
				"parameter %q: value below minimum", pt.Name)
		}
	}
	if pt.Max != nil {
		if c, ok := converted.Compare(*pt.Max); !ok || c > 0 {
			return Value{}, NewError(ErrorInvalidParameter,
				"parameter %q: value above maximum", pt.Name)
		}
	}

	if len(pt.Allowed) > 0 {
		allowed := false
		for _, a := range pt.Allowed {
			if converted.Equal(a) {
				allowed = true
				break
			}
		}
		if !allowed {
			names := make([]string, 0, len(pt.Allowed))
			for _, a := range pt.Allowed {
				names = append(names, fmt.Sprintf("%v", a.Interface()))
			}
			return Value{}, NewError(ErrorInvalidParameter,
				"parameter %q: value not in allowed set [%s]", pt.Name, strings.Join(names, ", "))
		}
	}

	return converted, NoError
}

func findParamType(schema []ParamType, name string) (ParamType, bool) {
	for _, pt := range schema {
		if pt.Name == name {
			return pt, true
		}
	}
	return ParamType{}, false
}
