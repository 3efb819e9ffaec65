// Package jesdcfg loads link configuration from a YAML file, the way
// an operator hands a board's JESD204B parameters to the software
// model without recompiling it.
package jesdcfg

/*------------------------------------------------------------------
 *
 * Purpose:	Read a link's Settings plus its runtime options from a
 *		YAML file, searching a short list of conventional
 *		locations when no explicit path is given.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/samoyed-labs/jesd204core/internal/jesd204"
)

// searchLocations is tried in order when Load is called with an empty
// path.
var searchLocations = []string{
	"jesd204.yaml",
	"config/jesd204.yaml",
	"../config/jesd204.yaml",
	"/etc/jesd204core/jesd204.yaml",
}

// Link is the YAML representation of one link's parameters and
// runtime options.
type Link struct {
	L   int `yaml:"l"`
	M   int `yaml:"m"`
	F   int `yaml:"f"`
	S   int `yaml:"s"`
	N   int `yaml:"n"`
	Np  int `yaml:"np"`
	K   int `yaml:"k"`
	Cs  int `yaml:"cs"`
	Did int `yaml:"did"`
	Bid int `yaml:"bid"`

	Scramble    bool `yaml:"scramble"`
	WithCounter bool `yaml:"with_counter"`

	// Lanes optionally names the serial port path backing each lane,
	// in lane order.
	Lanes []string `yaml:"lanes"`
}

// Config is the top-level YAML document: one or more named links.
type Config struct {
	Links map[string]Link `yaml:"links"`
}

// Load reads and parses path, or each of searchLocations in turn if
// path is empty.
func Load(path string) (*Config, error) {
	data, found, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("jesdcfg: no config file found (tried %v)", searchLocations)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("jesdcfg: parse: %w", err)
	}
	return &cfg, nil
}

func readConfig(path string) (data []byte, found bool, err error) {
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, false, fmt.Errorf("jesdcfg: read %s: %w", path, err)
		}
		return data, true, nil
	}

	for _, loc := range searchLocations {
		fp, openErr := os.Open(loc)
		if openErr != nil {
			continue
		}
		data, err = io.ReadAll(fp)
		fp.Close()
		if err != nil {
			return nil, false, fmt.Errorf("jesdcfg: read %s: %w", loc, err)
		}
		return data, true, nil
	}
	return nil, false, nil
}

// Settings builds the validated jesd204.JesdSettings this Link
// describes.
func (l Link) Settings() (*jesd204.JesdSettings, error) {
	return jesd204.NewSettings(l.L, l.M, l.F, l.S, l.N, l.Np, l.K, l.Cs, l.Did, l.Bid)
}
