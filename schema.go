package docsift

import "regexp"

// FieldType is the declared type of an extracted or validated field.
// The set is closed; schema loading rejects anything else.
type FieldType string

// Field types supported by the entity and selector schemas.
const (
	TypeString   FieldType = "string"
	TypeInteger  FieldType = "integer"
	TypeFloat    FieldType = "float"
	TypeBoolean  FieldType = "boolean"
	TypeArray    FieldType = "array"
	TypeObject   FieldType = "object"
	TypeURL      FieldType = "url"
	TypeEmail    FieldType = "email"
	TypeDate     FieldType = "date"
	TypeDatetime FieldType = "datetime"
)

// ParseFieldType maps a schema type string to a FieldType. Legacy aliases
// used by older schema files (text, html, array[string]) normalize to their
// base types.
func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "", "string", "text", "html":
		return TypeString, nil
	case "integer":
		return TypeInteger, nil
	case "float":
		return TypeFloat, nil
	case "boolean":
		return TypeBoolean, nil
	case "array", "array[string]":
		return TypeArray, nil
	case "object":
		return TypeObject, nil
	case "url":
		return TypeURL, nil
	case "email":
		return TypeEmail, nil
	case "date":
		return TypeDate, nil
	case "datetime":
		return TypeDatetime, nil
	}
	return "", Errorf(EINVALID, "unknown field type %q", s)
}

// Method is an extraction method. The set is closed; schema loading rejects
// anything else.
type Method string

// Extraction methods supported by the selector schema.
const (
	MethodText         Method = "text"
	MethodHTML         Method = "html"
	MethodAttribute    Method = "attribute"
	MethodTextList     Method = "text_list"
	MethodList         Method = "list"
	MethodExists       Method = "exists"
	MethodFromURL      Method = "from_url"
	MethodCanonicalURL Method = "canonical_url"
	MethodJSONLD       Method = "json_ld"
)

// ParseMethod maps a schema method string to a Method. The empty string
// defaults to text extraction.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "":
		return MethodText, nil
	case "text", "html", "attribute", "text_list", "list", "exists",
		"from_url", "canonical_url", "json_ld":
		return Method(s), nil
	}
	return "", Errorf(EINVALID, "unknown extraction method %q", s)
}

// FieldSchema declares the type and constraints of one entity field.
type FieldSchema struct {
	Type     FieldType
	Required bool
	Enum     []string
}

// EntitySchema declares the fields and primary key of one entity type.
type EntitySchema struct {
	Fields     map[string]FieldSchema
	FieldOrder []string
	PrimaryKey string
}

// SelectorSpec is one entry in a field's ordered selector chain. Method and
// Attribute, when set, override the field-level configuration for this
// selector only.
type SelectorSpec struct {
	Selector  string
	Method    Method
	Attribute string
}

// FieldConfig is the resolution rule for one field of a page type.
type FieldConfig struct {
	Method    Method
	Selectors []SelectorSpec
	Fallback  Value
	Type      FieldType
	Attribute string

	// Pattern refines an extracted value: the first capture group when the
	// pattern has groups, the whole match otherwise. Also the source pattern
	// for the from_url method.
	Pattern *regexp.Regexp

	// Group selects the capture group returned by from_url.
	Group int

	// Selector and SchemaTypes configure the json_ld method.
	JSONLDSelector string
	SchemaTypes    []string
}

// PageSchema holds the field rules for one page type. Container is the
// review-container selector on the reserved "container" key.
type PageSchema struct {
	Fields     map[string]FieldConfig
	FieldOrder []string
	Container  string
}

// MetaRule matches a page type when the attribute of the selected element
// contains Value (case-insensitive).
type MetaRule struct {
	Selector  string
	Attribute string
	Value     string
}

// DetectionRule holds the three detection channels for one page type.
// Rules are evaluated in schema declaration order.
type DetectionRule struct {
	PageType string

	// URLPattern is anchored at the start of the URL.
	URLPattern *regexp.Regexp

	Meta        []MetaRule
	BodyClasses []string
}

// SchemaSet holds the fully loaded, immutable configuration for one run.
type SchemaSet struct {
	// Entities maps entity type to its declared schema. EntityTypes keeps
	// declaration order for output partitioning and reporting.
	Entities    map[string]EntitySchema
	EntityTypes []string

	// Pages maps page type to its selector rules.
	Pages map[string]PageSchema

	// Detection lists page-type detection rules in declaration order.
	Detection []DetectionRule
}

// Entity returns the entity schema for a type.
func (s *SchemaSet) Entity(entityType string) (EntitySchema, bool) {
	es, ok := s.Entities[entityType]
	return es, ok
}

// Page returns the selector rules for a page type.
func (s *SchemaSet) Page(pageType string) (PageSchema, bool) {
	ps, ok := s.Pages[pageType]
	return ps, ok
}

// HasEntityType reports whether a page type has a declared entity schema
// and therefore an output partition.
func (s *SchemaSet) HasEntityType(entityType string) bool {
	_, ok := s.Entities[entityType]
	return ok
}
