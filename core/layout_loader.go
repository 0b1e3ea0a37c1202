// core/layout_loader.go
package core

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// LayoutFile is the on-disk facility description:
//
//	name = "Main lot"
//	rows = [
//	  "SSSS",
//	  "ERRR",
//	]
type LayoutFile struct {
	Name string   `toml:"name"`
	Rows []string `toml:"rows"`
}

// DecodeLayout reads a TOML layout from r. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func DecodeLayout(r io.Reader) (*LayoutFile, error) {
	var f LayoutFile
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode layout: %v", ErrConfiguration, err)
	}
	return checkLayoutFile(&f, md)
}

// LoadLayoutFile reads a TOML layout from path.
func LoadLayoutFile(path string) (*LayoutFile, error) {
	var f LayoutFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%w: read layout %s: %v", ErrConfiguration, path, err)
	}
	return checkLayoutFile(&f, md)
}

func checkLayoutFile(f *LayoutFile, md toml.MetaData) (*LayoutFile, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: unknown layout keys: %s", ErrConfiguration, strings.Join(keys, ", "))
	}
	if len(f.Rows) == 0 {
		return nil, fmt.Errorf("%w: layout file has no rows", ErrConfiguration)
	}
	return f, nil
}
