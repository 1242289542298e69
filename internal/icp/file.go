package icp

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var profileSchemaJSON []byte

var (
	schemaOnce     sync.Once
	profileSchema  *jsonschema.Schema
	profileSchemaE error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("icp-profile.json", bytes.NewReader(profileSchemaJSON)); err != nil {
			profileSchemaE = eris.Wrap(err, "icp: add schema")
			return
		}
		profileSchema, profileSchemaE = c.Compile("icp-profile.json")
		if profileSchemaE != nil {
			profileSchemaE = eris.Wrap(profileSchemaE, "icp: compile schema")
		}
	})
	return profileSchema, profileSchemaE
}

// LoadFile reads a profile form from a YAML or JSON file, checks it
// against the profile schema and returns it upgraded onto the defaults.
func LoadFile(path string) (FormData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FormData{}, eris.Wrapf(err, "icp: read %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseYAML decodes a YAML profile document. Unquoted dates stay in their
// written YYYY-MM-DD form.
func ParseYAML(data []byte) (FormData, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return FormData{}, eris.Wrap(err, "icp: parse yaml")
	}
	datesAsStrings(&root)
	var doc map[string]any
	if root.Kind != 0 {
		if err := root.Decode(&doc); err != nil {
			return FormData{}, eris.Wrap(err, "icp: parse yaml")
		}
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return FormData{}, eris.Wrap(err, "icp: convert yaml")
	}
	return ParseJSON(asJSON)
}

func datesAsStrings(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		datesAsStrings(c)
	}
}

// ParseJSON decodes a JSON profile document.
func ParseJSON(data []byte) (FormData, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return FormData{}, eris.Wrap(err, "icp: parse json")
	}

	schema, err := compiledSchema()
	if err != nil {
		return FormData{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return FormData{}, eris.Wrap(err, "icp: profile does not match schema")
	}

	form := NewFormData()
	if err := json.Unmarshal(data, &form); err != nil {
		return FormData{}, eris.Wrap(err, "icp: decode profile")
	}
	form.Normalize()
	return form, nil
}

// MarshalYAML renders a form as a YAML document using the canonical
// JSON field names.
func MarshalYAML(f FormData) ([]byte, error) {
	asJSON, err := json.Marshal(f)
	if err != nil {
		return nil, eris.Wrap(err, "icp: encode profile")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(asJSON, &doc); err != nil {
		return nil, eris.Wrap(err, "icp: convert profile")
	}
	blockStyle(&doc)
	out, err := yaml.Marshal(&doc)
	return out, eris.Wrap(err, "icp: render yaml")
}

// blockStyle drops the flow and quoting styles inherited from JSON.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
