package topology

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/followviz/followviz/pkg/errors"
)

// Marshal converts a Topology to indented JSON bytes.
func Marshal(t *Topology) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode topology")
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a Topology and validates it.
func Unmarshal(data []byte) (*Topology, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes a JSON topology from an io.Reader and validates it.
func Read(r io.Reader) (*Topology, error) {
	var t Topology
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "decode topology")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ReadFile reads a JSON file and returns the decoded Topology.
func ReadFile(path string) (*Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes a Topology to a JSON file.
func WriteFile(t *Topology, path string) error {
	data, err := Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the structural invariants of the topology: the root has an
// identifier, every follower has a unique identifier (scheme-insensitively),
// and follow pointers hold at most one target.
func (t *Topology) Validate() error {
	if t.Root.LocalURL == "" {
		return errors.New(errors.ErrCodeInvalidTopology, "root is missing localUrl")
	}
	seen := map[string]bool{Canonical(t.Root.LocalURL): true}
	for i := range t.Followers {
		f := &t.Followers[i]
		if f.LocalURL == "" {
			return errors.New(errors.ErrCodeInvalidTopology, "follower %d is missing localUrl", i)
		}
		id := Canonical(f.LocalURL)
		if seen[id] {
			return errors.New(errors.ErrCodeInvalidTopology, "duplicate node %s", f.LocalURL)
		}
		seen[id] = true
		if len(f.Following) > 1 {
			return errors.New(errors.ErrCodeInvalidTopology, "follower %s has %d following targets, want at most 1", f.LocalURL, len(f.Following))
		}
		if len(f.RequestedToFollow) > 1 {
			return errors.New(errors.ErrCodeInvalidTopology, "follower %s has %d requested targets, want at most 1", f.LocalURL, len(f.RequestedToFollow))
		}
	}
	return nil
}
