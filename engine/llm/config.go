package llm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultModel       = "gemini-1.5-flash-latest"
	DefaultTemperature = 0.5
	DefaultMaxTokens   = 2048
)

// Config is the per-call tuning of a completion. Two configs with the same
// Key share a model handle in the Registry.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	TopP        *float64
	TopK        *int
	Extra       map[string]string
	// InheritTemperature makes the gateway apply its configured temperature,
	// since zero is a valid explicit setting.
	InheritTemperature bool
}

// Inherit returns a config that takes every setting from the gateway defaults.
func Inherit() Config {
	return Config{InheritTemperature: true}
}

// DefaultConfig returns the gateway defaults.
func DefaultConfig() Config {
	return Config{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// WithTemperature returns a copy of c at temperature t.
func (c Config) WithTemperature(t float64) Config {
	c.Temperature = t
	return c
}

// Key identifies the handle this config maps to.
func (c Config) Key() string {
	var b strings.Builder
	b.WriteString(c.Model)
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(c.Temperature, 'g', -1, 64))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(c.MaxTokens))
	b.WriteByte('|')
	if c.TopP != nil {
		b.WriteString(strconv.FormatFloat(*c.TopP, 'g', -1, 64))
	}
	b.WriteByte('|')
	if c.TopK != nil {
		b.WriteString(strconv.Itoa(*c.TopK))
	}
	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%s", k, c.Extra[k])
	}
	return b.String()
}

// Float returns a pointer to v, for the optional sampling knobs.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
