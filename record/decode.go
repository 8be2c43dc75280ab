package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decoder reads one extraction record from a byte stream.
type Decoder interface {
	// Decode parses a complete record. Unknown content fields are kept,
	// never rejected; only malformed input fails.
	Decode(r io.Reader) (*Library, error)

	// Extensions lists the file extensions this decoder handles,
	// lowercase and without the leading dot.
	Extensions() []string
}

// Registry maps file extensions to record decoders.
type Registry struct {
	decoders map[string]Decoder
}

// NewRegistry returns a registry with the built-in JSON and YAML decoders.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[string]Decoder)}
	for _, d := range []Decoder{JSONDecoder{}, YAMLDecoder{}} {
		for _, ext := range d.Extensions() {
			r.decoders[ext] = d
		}
	}
	return r
}

// Get returns the decoder for a file extension.
func (r *Registry) Get(format string) (Decoder, error) {
	d, ok := r.decoders[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("no decoder for format: %s", format)
	}
	return d, nil
}

// Register adds or replaces the decoder for an extension.
func (r *Registry) Register(format string, d Decoder) {
	r.decoders[strings.ToLower(format)] = d
}

// Formats returns the registered extensions.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		formats = append(formats, ext)
	}
	return formats
}

// DecodeFile reads a record from disk, choosing the decoder by extension.
func (r *Registry) DecodeFile(path string) (*Library, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	d, err := r.Get(ext)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening record: %w", err)
	}
	defer f.Close()
	return d.Decode(f)
}

// JSONDecoder reads a JSON extraction record.
type JSONDecoder struct{}

func (JSONDecoder) Extensions() []string { return []string{"json"} }

func (JSONDecoder) Decode(r io.Reader) (*Library, error) {
	var lib Library
	if err := json.NewDecoder(r).Decode(&lib); err != nil {
		return nil, fmt.Errorf("decoding json record: %w", err)
	}
	return &lib, nil
}

// YAMLDecoder reads a YAML extraction record. The document is converted
// through JSON so unknown content fields land in the same pass-through
// bag as the JSON path.
type YAMLDecoder struct{}

func (YAMLDecoder) Extensions() []string { return []string{"yaml", "yml"} }

func (YAMLDecoder) Decode(r io.Reader) (*Library, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Library{}, nil
		}
		return nil, fmt.Errorf("decoding yaml record: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting yaml record: %w", err)
	}
	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("decoding yaml record: %w", err)
	}
	return &lib, nil
}
