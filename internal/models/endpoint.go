package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EndpointKey identifies an endpoint override: "/path" matches every method,
// "METHOD /path" only that method.
type EndpointKey struct {
	Method string `json:"method,omitempty"` // uppercase, empty when method-agnostic
	Path   string `json:"path"`
}

// String renders the key back into its canonical textual form
func (k EndpointKey) String() string {
	if k.Method == "" {
		return k.Path
	}
	return k.Method + " " + k.Path
}

// EvaluationConfig holds the alerting parameters of a single metric
type EvaluationConfig struct {
	Threshold            float64 `json:"threshold"`
	EvaluationFrequency  int     `json:"evaluationFrequency"`  // minutes
	EvaluationTimeWindow int     `json:"evaluationTimeWindow"` // minutes
	EventOccurrences     int     `json:"eventOccurrences"`
}

// EndpointConfig is the fully merged monitoring configuration of one endpoint
type EndpointConfig struct {
	Method       string           `json:"method,omitempty"`
	Path         string           `json:"path"`
	Availability EvaluationConfig `json:"availability"`
	ResponseTime EvaluationConfig `json:"responseTime"`
}

// Label is the human readable endpoint name used in titles and descriptions
func (c EndpointConfig) Label() string {
	return EndpointKey{Method: c.Method, Path: c.Path}.String()
}

// Endpoints is an insertion-ordered map of final path -> EndpointConfig.
// Order follows the source spec so generated artifacts diff cleanly.
type Endpoints struct {
	keys  []string
	items map[string]EndpointConfig
}

// NewEndpoints creates an empty ordered endpoint map
func NewEndpoints() Endpoints {
	return Endpoints{items: make(map[string]EndpointConfig)}
}

// Set stores cfg under path, appending path if it is new
func (e *Endpoints) Set(path string, cfg EndpointConfig) {
	if e.items == nil {
		e.items = make(map[string]EndpointConfig)
	}
	if _, exists := e.items[path]; !exists {
		e.keys = append(e.keys, path)
	}
	e.items[path] = cfg
}

// Get returns the config stored under path
func (e Endpoints) Get(path string) (EndpointConfig, bool) {
	cfg, ok := e.items[path]
	return cfg, ok
}

// Has reports whether path is present
func (e Endpoints) Has(path string) bool {
	_, ok := e.items[path]
	return ok
}

// Len returns the number of endpoints
func (e Endpoints) Len() int {
	return len(e.keys)
}

// Keys returns the paths in insertion order
func (e Endpoints) Keys() []string {
	keys := make([]string, len(e.keys))
	copy(keys, e.keys)
	return keys
}

// Values returns the configs in insertion order
func (e Endpoints) Values() []EndpointConfig {
	values := make([]EndpointConfig, 0, len(e.keys))
	for _, k := range e.keys {
		values = append(values, e.items[k])
	}
	return values
}

// Clone returns a copy that shares no state with e
func (e Endpoints) Clone() Endpoints {
	out := Endpoints{
		keys:  make([]string, len(e.keys)),
		items: make(map[string]EndpointConfig, len(e.items)),
	}
	copy(out.keys, e.keys)
	for k, v := range e.items {
		out.items[k] = v
	}
	return out
}

// MarshalJSON encodes the endpoints as an object with keys in insertion order
func (e Endpoints) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range e.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.items[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping the key order of the document
func (e *Endpoints) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("endpoints: expected object, got %v", tok)
	}

	*e = NewEndpoints()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("endpoints: expected string key, got %v", tok)
		}
		var cfg EndpointConfig
		if err := dec.Decode(&cfg); err != nil {
			return fmt.Errorf("endpoints[%s]: %w", key, err)
		}
		e.Set(key, cfg)
	}

	_, err = dec.Token()
	return err
}
