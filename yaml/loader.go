// Package yaml loads the entity and selector schemas from YAML files into
// the immutable typed configuration used by the rest of the pipeline.
// Malformed configuration fails here, at load time, not during extraction.
package yaml

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/fwojciec/docsift"
	"gopkg.in/yaml.v3"
)

// Schema file names expected inside the schema directory.
const (
	entitiesFile  = "entities.yaml"
	selectorsFile = "selectors.yaml"
)

// Reserved non-field keys inside a page type's selector section.
const (
	keyContainer      = "container"
	keyStructuredData = "structured_data"
	keyDetection      = "page_type_detection"
)

const defaultJSONLDSelector = `script[type="application/ld+json"]`

// LoadSchemas reads entities.yaml and selectors.yaml from dir and returns
// the fully validated schema set. Any structural problem is EINVALID.
func LoadSchemas(dir string) (*docsift.SchemaSet, error) {
	set := &docsift.SchemaSet{
		Entities: make(map[string]docsift.EntitySchema),
		Pages:    make(map[string]docsift.PageSchema),
	}

	entities, err := loadMapping(filepath.Join(dir, entitiesFile))
	if err != nil {
		return nil, err
	}
	if err := parseEntities(entities, set); err != nil {
		return nil, err
	}

	selectors, err := loadMapping(filepath.Join(dir, selectorsFile))
	if err != nil {
		return nil, err
	}
	if err := parseSelectors(selectors, set); err != nil {
		return nil, err
	}

	return set, nil
}

// loadMapping reads a YAML file and returns its top-level mapping node.
func loadMapping(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, docsift.Errorf(docsift.EINVALID, "schema not found: %s", path)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, docsift.Errorf(docsift.EINVALID, "cannot parse %s: %v", path, err)
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, docsift.Errorf(docsift.EINVALID, "%s: expected a top-level mapping", path)
	}
	return root.Content[0], nil
}

// eachPair iterates the key/value pairs of a mapping node in declaration
// order.
func eachPair(mapping *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if err := fn(mapping.Content[i].Value, mapping.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func parseEntities(root *yaml.Node, set *docsift.SchemaSet) error {
	var entities *yaml.Node
	_ = eachPair(root, func(key string, value *yaml.Node) error {
		if key == "entities" {
			entities = value
		}
		return nil
	})
	if entities == nil || entities.Kind != yaml.MappingNode {
		return docsift.Errorf(docsift.EINVALID, "entities schema: missing 'entities' mapping")
	}

	return eachPair(entities, func(entityType string, node *yaml.Node) error {
		var raw struct {
			PrimaryKey string    `yaml:"primary_key"`
			Fields     yaml.Node `yaml:"fields"`
		}
		if err := node.Decode(&raw); err != nil {
			return docsift.Errorf(docsift.EINVALID, "entity %q: %v", entityType, err)
		}
		if raw.Fields.Kind != yaml.MappingNode {
			return docsift.Errorf(docsift.EINVALID, "entity %q: missing 'fields' mapping", entityType)
		}

		schema := docsift.EntitySchema{
			Fields:     make(map[string]docsift.FieldSchema),
			PrimaryKey: raw.PrimaryKey,
		}
		if err := eachPair(&raw.Fields, func(fieldName string, fieldNode *yaml.Node) error {
			fs, err := parseFieldSchema(fieldNode)
			if err != nil {
				return docsift.Errorf(docsift.EINVALID, "entity %q field %q: %v", entityType, fieldName, err)
			}
			schema.Fields[fieldName] = fs
			schema.FieldOrder = append(schema.FieldOrder, fieldName)
			return nil
		}); err != nil {
			return err
		}

		set.Entities[entityType] = schema
		set.EntityTypes = append(set.EntityTypes, entityType)
		return nil
	})
}

func parseFieldSchema(node *yaml.Node) (docsift.FieldSchema, error) {
	var raw struct {
		Type     string `yaml:"type"`
		Required bool   `yaml:"required"`
		Enum     []any  `yaml:"enum"`
	}
	if err := node.Decode(&raw); err != nil {
		return docsift.FieldSchema{}, err
	}

	t, err := docsift.ParseFieldType(raw.Type)
	if err != nil {
		return docsift.FieldSchema{}, err
	}

	fs := docsift.FieldSchema{Type: t, Required: raw.Required}
	for _, v := range raw.Enum {
		if s, ok := v.(string); ok {
			fs.Enum = append(fs.Enum, s)
		} else {
			fs.Enum = append(fs.Enum, fmt.Sprint(v))
		}
	}
	return fs, nil
}

func parseSelectors(root *yaml.Node, set *docsift.SchemaSet) error {
	return eachPair(root, func(key string, node *yaml.Node) error {
		if key == keyDetection {
			return parseDetection(node, set)
		}
		page, err := parsePageSchema(key, node)
		if err != nil {
			return err
		}
		set.Pages[key] = page
		return nil
	})
}

func parseDetection(node *yaml.Node, set *docsift.SchemaSet) error {
	if node.Kind != yaml.MappingNode {
		return docsift.Errorf(docsift.EINVALID, "page_type_detection: expected a mapping")
	}
	return eachPair(node, func(pageType string, rulesNode *yaml.Node) error {
		var raw struct {
			URLPattern   string `yaml:"url_pattern"`
			MetaPatterns []struct {
				Selector  string `yaml:"selector"`
				Attribute string `yaml:"attribute"`
				Value     string `yaml:"value"`
			} `yaml:"meta_patterns"`
			BodyClassPatterns []string `yaml:"body_class_patterns"`
		}
		if err := rulesNode.Decode(&raw); err != nil {
			return docsift.Errorf(docsift.EINVALID, "page_type_detection %q: %v", pageType, err)
		}

		rule := docsift.DetectionRule{
			PageType:    pageType,
			BodyClasses: raw.BodyClassPatterns,
		}
		if raw.URLPattern != "" {
			// Anchor at the start: the rule matches URL prefixes, not
			// arbitrary substrings.
			re, err := regexp.Compile("^(?:" + raw.URLPattern + ")")
			if err != nil {
				return docsift.Errorf(docsift.EINVALID, "page_type_detection %q: bad url_pattern: %v", pageType, err)
			}
			rule.URLPattern = re
		}
		for _, m := range raw.MetaPatterns {
			if m.Selector == "" || m.Attribute == "" || m.Value == "" {
				return docsift.Errorf(docsift.EINVALID, "page_type_detection %q: meta pattern needs selector, attribute and value", pageType)
			}
			rule.Meta = append(rule.Meta, docsift.MetaRule{
				Selector:  m.Selector,
				Attribute: m.Attribute,
				Value:     m.Value,
			})
		}

		set.Detection = append(set.Detection, rule)
		return nil
	})
}

func parsePageSchema(pageType string, node *yaml.Node) (docsift.PageSchema, error) {
	page := docsift.PageSchema{Fields: make(map[string]docsift.FieldConfig)}
	if node.Kind != yaml.MappingNode {
		return page, docsift.Errorf(docsift.EINVALID, "page type %q: expected a mapping", pageType)
	}

	err := eachPair(node, func(fieldName string, fieldNode *yaml.Node) error {
		switch fieldName {
		case keyContainer:
			selector, err := parseContainer(fieldNode)
			if err != nil {
				return docsift.Errorf(docsift.EINVALID, "page type %q: %v", pageType, err)
			}
			page.Container = selector
			return nil
		case keyStructuredData:
			// Reserved for schema tooling; not a field.
			return nil
		}

		cfg, err := parseFieldConfig(fieldNode)
		if err != nil {
			return docsift.Errorf(docsift.EINVALID, "page type %q field %q: %v", pageType, fieldName, err)
		}
		page.Fields[fieldName] = cfg
		page.FieldOrder = append(page.FieldOrder, fieldName)
		return nil
	})
	return page, err
}

func parseContainer(node *yaml.Node) (string, error) {
	if node.Kind == yaml.ScalarNode {
		return node.Value, nil
	}
	var raw struct {
		Selector string `yaml:"selector"`
	}
	if err := node.Decode(&raw); err != nil {
		return "", fmt.Errorf("bad container: %w", err)
	}
	if raw.Selector == "" {
		return "", fmt.Errorf("container needs a selector")
	}
	return raw.Selector, nil
}

func parseFieldConfig(node *yaml.Node) (docsift.FieldConfig, error) {
	var raw struct {
		Method      string      `yaml:"method"`
		Selectors   []yaml.Node `yaml:"selectors"`
		Fallback    any         `yaml:"fallback"`
		Pattern     string      `yaml:"pattern"`
		Type        string      `yaml:"type"`
		Attribute   string      `yaml:"attribute"`
		Group       int         `yaml:"group"`
		Selector    string      `yaml:"selector"`
		SchemaTypes []string    `yaml:"schema_types"`
	}
	if err := node.Decode(&raw); err != nil {
		return docsift.FieldConfig{}, err
	}

	method, err := docsift.ParseMethod(raw.Method)
	if err != nil {
		return docsift.FieldConfig{}, err
	}
	fieldType, err := docsift.ParseFieldType(raw.Type)
	if err != nil {
		return docsift.FieldConfig{}, err
	}

	cfg := docsift.FieldConfig{
		Method:      method,
		Fallback:    docsift.ValueOf(raw.Fallback),
		Type:        fieldType,
		Attribute:   raw.Attribute,
		Group:       raw.Group,
		SchemaTypes: raw.SchemaTypes,
	}

	if raw.Pattern != "" {
		re, err := regexp.Compile(raw.Pattern)
		if err != nil {
			return docsift.FieldConfig{}, fmt.Errorf("bad pattern: %w", err)
		}
		cfg.Pattern = re
	}

	if method == docsift.MethodJSONLD {
		cfg.JSONLDSelector = raw.Selector
		if cfg.JSONLDSelector == "" {
			cfg.JSONLDSelector = defaultJSONLDSelector
		}
	}

	for _, selNode := range raw.Selectors {
		spec, err := parseSelectorSpec(&selNode)
		if err != nil {
			return docsift.FieldConfig{}, err
		}
		cfg.Selectors = append(cfg.Selectors, spec)
	}

	return cfg, nil
}

func parseSelectorSpec(node *yaml.Node) (docsift.SelectorSpec, error) {
	// A selector entry is either a bare string or a mapping with per-spec
	// method/attribute overrides.
	if node.Kind == yaml.ScalarNode {
		if node.Value == "" {
			return docsift.SelectorSpec{}, fmt.Errorf("empty selector")
		}
		return docsift.SelectorSpec{Selector: node.Value}, nil
	}

	var raw struct {
		Selector  string `yaml:"selector"`
		Method    string `yaml:"method"`
		Attribute string `yaml:"attribute"`
	}
	if err := node.Decode(&raw); err != nil {
		return docsift.SelectorSpec{}, fmt.Errorf("bad selector entry: %w", err)
	}
	if raw.Selector == "" {
		return docsift.SelectorSpec{}, fmt.Errorf("selector entry needs a selector")
	}

	spec := docsift.SelectorSpec{Selector: raw.Selector, Attribute: raw.Attribute}
	if raw.Method != "" {
		m, err := docsift.ParseMethod(raw.Method)
		if err != nil {
			return docsift.SelectorSpec{}, err
		}
		spec.Method = m
	}
	return spec, nil
}
