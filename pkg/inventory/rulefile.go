package inventory

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RuleFile is the on-disk layout of extra rule rows.
//
//	replace_defaults: false
//	rules:
//	  - item: Starmetal Ore
//	    patterns:
//	      - name: 'St4rmetal'
//	        position: before
//	  - item: Leatherworking Materials
//	    patterns:
//	      - name: 'LKATHKRWORKING'
//	        position: near
//	        lookahead: 40
type RuleFile struct {
	ReplaceDefaults bool       `yaml:"replace_defaults"`
	Rules           []ItemRule `yaml:"rules"`
}

// ParseRules decodes a YAML rule document.
func ParseRules(data []byte) (RuleFile, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return rf, errors.Wrap(err, "decode rules")
	}
	return rf, nil
}

// LoadTable builds the rule table for path. An empty path yields the default table;
// otherwise the file's rows extend (or replace) the defaults.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return NewTable(DefaultRules())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read rules %s", path)
	}
	rf, err := ParseRules(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	rows := rf.Rules
	if !rf.ReplaceDefaults {
		rows = append(DefaultRules(), rows...)
	}
	t, err := NewTable(rows)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return t, nil
}
