package main

import (
	"context"
	"io"
	"log/slog"
)

// Dependencies holds shared configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Extract  ExtractCmd  `cmd:"" help:"Extract typed entities from a mirrored HTML corpus"`
	Validate ValidateCmd `cmd:"" help:"Validate extracted entity partitions against the schema"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	SchemaDir string `default:"schema" help:"Directory with schema YAML files"`
	MirrorDir string `default:"mirror" help:"Root of the mirrored corpus"`
	OutputDir string `default:"mirror/extracted" help:"Directory for output partitions and reports"`
	Format    string `default:"jsonl" enum:"jsonl,sqlite" help:"Output sink (jsonl or sqlite)"`
	Verbose   bool   `short:"v" help:"Log per-document detection and slug decisions"`
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	SchemaDir  string `default:"schema" help:"Directory with schema YAML files"`
	DataDir    string `default:"mirror/extracted" help:"Directory with extracted JSONL partitions"`
	EntityType string `help:"Validate a single entity type instead of all"`
	Verbose    bool   `short:"v" help:"Log per-partition progress"`
}
