package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/demazure/pkg/errors"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

var formats = []string{formatText, formatJSON, formatYAML, formatTOML}

func checkFormat(format string) error {
	if !slices.Contains(formats, format) {
		return errs.New(errs.ErrCodeInvalidInput, "unknown output format %q (want text, json, yaml or toml)", format)
	}
	return nil
}

// emit writes result in the selected format. text renders the human
// readable form; the other formats encode result itself, so result must be
// a struct (TOML documents are tables).
func (c *CLI) emit(w io.Writer, result any, text func(io.Writer)) error {
	switch c.output {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case formatTOML:
		if err := toml.NewEncoder(w).Encode(result); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	default:
		text(w)
	}
	return nil
}
