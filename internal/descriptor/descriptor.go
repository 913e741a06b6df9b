package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/concierge/firstrun/internal/branding"
)

// ErrNotFound is returned by Read when none of the candidate files exist or
// parse. It is a normal outcome, not a failure of the caller.
var ErrNotFound = errors.New("no readable descriptor")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Descriptor is the subset of a module's metadata file that the bootstrap
// cares about. Unknown fields are ignored.
type Descriptor struct {
	Name    string  `json:"name"`
	Version Version `json:"version"`

	// Path is the file the descriptor was read from.
	Path string `json:"-"`
}

// Read returns the first descriptor in dir that parses, trying the branding
// descriptor file names in order.
func Read(fs afero.Fs, dir string) (*Descriptor, error) {
	return ReadNames(fs, dir, branding.DescriptorFiles())
}

// ReadNames is Read with an explicit candidate list.
func ReadNames(fs afero.Fs, dir string, names []string) (*Descriptor, error) {
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			continue
		}
		d, ok := parse(data)
		if !ok {
			continue
		}
		d.Path = path
		return d, nil
	}
	return nil, ErrNotFound
}

// parse decodes data as a JSON object. Anything else (null, scalars, arrays,
// malformed input) is rejected so the next candidate gets a chance. Fields
// other than version are best effort: a non-string name does not disqualify
// the file.
func parse(data []byte) (*Descriptor, bool) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false
	}

	var d Descriptor
	if raw, ok := fields["name"]; ok {
		_ = json.Unmarshal(raw, &d.Name)
	}
	if raw, ok := fields["version"]; ok {
		if err := d.Version.UnmarshalJSON(raw); err != nil {
			d.Version = Version{}
		}
	}
	return &d, true
}
