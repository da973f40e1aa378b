// Package docsift converts a mirrored corpus of HTML documents into typed,
// validated entity records for a directory/review site. Extraction is driven
// entirely by declarative schema configuration: page-type detection rules,
// ordered selector chains with fallbacks, and per-field type declarations.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, yaml/, sqlite/).
package docsift
