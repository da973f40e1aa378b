package docsift

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(?i)^https?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validator checks decoded entity records against the entity schema.
// Records are expected to come from a json.Decoder with UseNumber set, so
// the integer/float distinction survives the JSONL round trip.
type Validator struct {
	schemas *SchemaSet
}

// NewValidator returns a Validator over the given schema set.
func NewValidator(schemas *SchemaSet) *Validator {
	return &Validator{schemas: schemas}
}

// ValidateEntity validates a complete record against its entity type's
// schema. The record is valid iff the returned error list is empty.
func (v *Validator) ValidateEntity(record map[string]any, entityType string) (bool, []string) {
	var errs []string

	schema, ok := v.schemas.Entity(entityType)
	if !ok {
		return false, []string{fmt.Sprintf("Unknown entity type: %s", entityType)}
	}

	for _, name := range schema.FieldOrder {
		errs = append(errs, validateField(name, record[name], schema.Fields[name])...)
	}

	// The primary key is checked independently of the per-field loop: it
	// must be present and non-empty even when not marked required.
	if schema.PrimaryKey != "" {
		if !Truthy(record[schema.PrimaryKey]) {
			errs = append(errs, fmt.Sprintf("Primary key '%s' is missing or empty", schema.PrimaryKey))
		}
	}

	return len(errs) == 0, errs
}

// validateField validates one value against its field schema. A missing
// required value or a type mismatch is terminal for the field: no further
// checks run.
func validateField(name string, value any, schema FieldSchema) []string {
	var errs []string

	if schema.Required && jsonEmpty(value) {
		return []string{fmt.Sprintf("Required field '%s' is missing or empty", name)}
	}

	// Valid by omission.
	if value == nil {
		return nil
	}

	if msg := checkType(name, value, schema.Type); msg != "" {
		return []string{msg}
	}

	switch schema.Type {
	case TypeURL:
		if s, ok := value.(string); ok && !urlPattern.MatchString(s) {
			errs = append(errs, fmt.Sprintf("Field '%s' has invalid URL format: %v", name, s))
		}
	case TypeEmail:
		if s, ok := value.(string); ok && !emailPattern.MatchString(s) {
			errs = append(errs, fmt.Sprintf("Field '%s' has invalid email format: %v", name, s))
		}
	case TypeFloat:
		if strings.Contains(strings.ToLower(name), "rating") {
			if f, ok := jsonFloat(value); ok && (f < 0 || f > 5) {
				errs = append(errs, fmt.Sprintf("Field '%s' rating value %v is out of range (0-5)", name, value))
			}
		}
	case TypeInteger:
		if f, ok := jsonFloat(value); ok && f < 0 {
			errs = append(errs, fmt.Sprintf("Field '%s' has negative integer value: %v", name, value))
		}
	}

	if len(schema.Enum) > 0 {
		if !enumContains(schema.Enum, value) {
			errs = append(errs, fmt.Sprintf("Field '%s' value '%v' not in allowed values: %v", name, value, schema.Enum))
		}
	}

	return errs
}

// checkType returns an error message when the value does not match the
// declared type, or "" on match.
func checkType(name string, value any, t FieldType) string {
	ok := false
	switch t {
	case TypeString, TypeURL, TypeEmail, TypeDate, TypeDatetime:
		_, ok = value.(string)
	case TypeInteger:
		if n, isNum := value.(json.Number); isNum {
			_, err := n.Int64()
			ok = err == nil
		}
	case TypeFloat:
		_, ok = value.(json.Number)
	case TypeBoolean:
		_, ok = value.(bool)
	case TypeArray:
		_, ok = value.([]any)
	case TypeObject:
		_, ok = value.(map[string]any)
	default:
		ok = true
	}
	if ok {
		return ""
	}
	return fmt.Sprintf("Field '%s' expected %s, got %s", name, typeLabel(t), jsonTypeName(value))
}

func typeLabel(t FieldType) string {
	switch t {
	case TypeURL, TypeEmail:
		return "string"
	case TypeDate, TypeDatetime:
		return "datetime string"
	}
	return string(t)
}

func jsonTypeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", value)
}

func jsonFloat(value any) (float64, bool) {
	n, ok := value.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// jsonEmpty reports whether a value counts as missing for a required field:
// null, empty string or empty array.
func jsonEmpty(value any) bool {
	switch t := value.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	}
	return false
}

// Truthy reports whether a primary-key value is usable: present and
// neither zero, false nor empty.
func Truthy(value any) bool {
	switch t := value.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

func enumContains(enum []string, value any) bool {
	var s string
	switch t := value.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		s = fmt.Sprintf("%t", t)
	default:
		s = fmt.Sprint(t)
	}
	for _, allowed := range enum {
		if s == allowed {
			return true
		}
	}
	return false
}
