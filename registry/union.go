package registry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// unionUnwrapper rewrites goavro's native form so that union members appear as
// their bare value instead of a single key {"<type>": value} map. This is the
// shape Confluent's Avro deserialisers return.
//
// Named types are indexed by full name and by short name, so references and
// union keys resolve whether or not they are namespace qualified.
type unionUnwrapper struct {
	root  any
	named map[string]map[string]any
}

func newUnionUnwrapper(schema string) (*unionUnwrapper, error) {
	var root any
	if err := json.Unmarshal([]byte(schema), &root); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	u := &unionUnwrapper{
		root:  root,
		named: make(map[string]map[string]any),
	}
	u.collect(root, "")
	return u, nil
}

// Unwrap rewrites v in place where it can and returns the result.
func (u *unionUnwrapper) Unwrap(v any) any {
	return u.unwrap(u.root, v)
}

func (u *unionUnwrapper) collect(schema any, namespace string) {
	switch s := schema.(type) {
	case []any:
		for _, member := range s {
			u.collect(member, namespace)
		}
	case map[string]any:
		typ, isString := s["type"].(string)
		if !isString {
			u.collect(s["type"], namespace)
			return
		}

		switch typ {
		case "record", "error":
			ns := u.register(s, namespace)
			fields, _ := s["fields"].([]any)
			for _, f := range fields {
				if field, ok := f.(map[string]any); ok {
					u.collect(field["type"], ns)
				}
			}
		case "enum", "fixed":
			u.register(s, namespace)
		case "array":
			u.collect(s["items"], namespace)
		case "map":
			u.collect(s["values"], namespace)
		}
	}
}

// register indexes a named type and returns the namespace its children inherit.
func (u *unionUnwrapper) register(s map[string]any, enclosing string) string {
	name, _ := s["name"].(string)
	if name == "" {
		return enclosing
	}

	ns := enclosing
	if explicit, ok := s["namespace"].(string); ok {
		ns = explicit
	}

	full := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ns = name[:i]
	} else if ns != "" {
		full = ns + "." + name
	}

	u.named[full] = s
	if _, taken := u.named[shortName(full)]; !taken {
		u.named[shortName(full)] = s
	}
	return ns
}

func (u *unionUnwrapper) lookup(name string) (map[string]any, bool) {
	if def, ok := u.named[name]; ok {
		return def, true
	}
	def, ok := u.named[shortName(name)]
	return def, ok
}

func shortName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func (u *unionUnwrapper) unwrap(schema any, v any) any {
	if v == nil {
		return nil
	}

	switch s := schema.(type) {
	case string:
		if def, ok := u.lookup(s); ok {
			return u.unwrap(def, v)
		}
		return v

	case []any:
		wrapped, ok := v.(map[string]any)
		if !ok || len(wrapped) != 1 {
			return v
		}
		for key, inner := range wrapped {
			member, found := u.member(s, key)
			if !found {
				return inner
			}
			return u.unwrap(member, inner)
		}
		return v

	case map[string]any:
		typ, isString := s["type"].(string)
		if !isString {
			return u.unwrap(s["type"], v)
		}

		switch typ {
		case "record", "error":
			rec, ok := v.(map[string]any)
			if !ok {
				return v
			}
			fields, _ := s["fields"].([]any)
			for _, f := range fields {
				field, ok := f.(map[string]any)
				if !ok {
					continue
				}
				name, _ := field["name"].(string)
				if fv, ok := rec[name]; ok {
					rec[name] = u.unwrap(field["type"], fv)
				}
			}
			return rec

		case "array":
			items, ok := v.([]any)
			if !ok {
				return v
			}
			for i, item := range items {
				items[i] = u.unwrap(s["items"], item)
			}
			return items

		case "map":
			values, ok := v.(map[string]any)
			if !ok {
				return v
			}
			for k, item := range values {
				values[k] = u.unwrap(s["values"], item)
			}
			return values

		case "enum", "fixed":
			return v
		}

		if _, ok := u.lookup(typ); ok {
			return u.unwrap(typ, v)
		}
	}

	return v
}

// member finds the union member goavro keyed as key. goavro keys named types
// by full name and logical types as "<type>.<logicalType>".
func (u *unionUnwrapper) member(union []any, key string) (any, bool) {
	for _, m := range union {
		if u.memberName(m) == key {
			return m, true
		}
	}

	if base, _, ok := strings.Cut(key, "."); ok {
		for _, m := range union {
			if u.memberName(m) == base {
				return m, true
			}
		}
	}

	short := shortName(key)
	for _, m := range union {
		if shortName(u.memberName(m)) == short {
			return m, true
		}
	}

	return nil, false
}

func (u *unionUnwrapper) memberName(m any) string {
	switch s := m.(type) {
	case string:
		return s
	case map[string]any:
		typ, _ := s["type"].(string)
		switch typ {
		case "record", "error", "enum", "fixed":
			name, _ := s["name"].(string)
			return name
		}
		return typ
	}
	return ""
}
