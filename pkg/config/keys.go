package config

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

const redactedValue = "[REDACTED]"

// Key is one leaf setting addressed by its dotted YAML path.
type Key struct {
	Path      string
	EnvVar    string
	Sensitive bool
	Value     any
}

var (
	durationType  = reflect.TypeOf(time.Duration(0))
	sensitiveType = reflect.TypeOf(SensitiveString(""))

	envBindings     map[string]string
	envBindingsOnce sync.Once
)

// EnvBindings maps every declared environment variable to the path it sets.
func EnvBindings() map[string]string {
	envBindingsOnce.Do(func() {
		envBindings = make(map[string]string)
		for _, k := range Keys(&Config{}) {
			if k.EnvVar != "" {
				envBindings[k.EnvVar] = k.Path
			}
		}
	})
	return envBindings
}

// Keys lists the leaves of cfg in declaration order. Secrets are masked and
// durations are rendered the way the loader parses them back.
func Keys(cfg *Config) []Key {
	if cfg == nil {
		return nil
	}
	return collectKeys(reflect.ValueOf(cfg).Elem(), "", nil)
}

func collectKeys(v reflect.Value, prefix string, out []Key) []Key {
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		name := field.Tag.Get("koanf")
		if !field.IsExported() || name == "" || name == "-" {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		fv := v.Field(i)
		if field.Type.Kind() == reflect.Struct {
			out = collectKeys(fv, path, out)
			continue
		}
		key := Key{
			Path:      path,
			EnvVar:    field.Tag.Get("env"),
			Sensitive: field.Type == sensitiveType || field.Tag.Get("sensitive") == "true",
		}
		switch {
		case key.Sensitive:
			key.Value = ""
			if !fv.IsZero() {
				key.Value = redactedValue
			}
		case field.Type == durationType:
			key.Value = time.Duration(fv.Int()).String()
		default:
			key.Value = fv.Interface()
		}
		out = append(out, key)
	}
	return out
}

// Tree nests keys back into maps, the shape of the YAML file.
func Tree(keys []Key) map[string]any {
	root := make(map[string]any)
	for _, k := range keys {
		parts := strings.Split(k.Path, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = k.Value
	}
	return root
}
