// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// applyConfig reads flag defaults from the YAML file at the specified path and
// sets all flags that haven't been explicitly set on the command line. Keys
// are flag names; list values are only allowed for repeatable flags, such as:
//
//	host: example.org
//	workers: 20
//	input:
//	  - 10.0.0.0/24
//	  - 10.0.1.1-10
func applyConfig(flags *pflag.FlagSet, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read configuration: %w", err)
	}
	var settings map[string]interface{}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("invalid configuration %q: %w", path, err)
	}
	for name, value := range settings {
		flag := flags.Lookup(name)
		if flag == nil || name == "config" {
			return fmt.Errorf("invalid configuration %q: unknown setting %q", path, name)
		}
		if flag.Changed {
			continue
		}
		values, ok := value.([]interface{})
		if !ok {
			values = []interface{}{value}
		}
		for _, val := range values {
			if err := flags.Set(name, fmt.Sprint(val)); err != nil {
				return fmt.Errorf("invalid configuration %q: setting %q: %w", path, name, err)
			}
		}
	}
	return nil
}
