package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Flags holds all command-line flags
type Flags struct {
	// Commands
	Probe   *bool
	Query   *string
	Toggles *bool

	// Options
	Config   *string
	ProbeSQL *string
	Timeout  *time.Duration
	Types    *string // Comma-separated column type names for query parameters
	Set      setFlags
	Verbose  *bool

	// Config Creation
	CreateConfigPG    *bool
	CreateConfigMySQL *bool

	// Misc
	Version *bool
	Help    *bool

	// Args - positional arguments, used as query parameters
	Args []string
}

// setFlags collects repeated -set name=value flags
type setFlags []string

func (s *setFlags) String() string { return strings.Join(*s, ",") }

func (s *setFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected name=value, got %q", v)
	}
	*s = append(*s, v)
	return nil
}

// Values converts collected flags into toggle values: true/false become
// bool, nil/null/empty reset the toggle, anything else enables it
func (s setFlags) Values() map[string]any {
	values := make(map[string]any, len(s))
	for _, item := range s {
		name, raw, _ := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true":
			values[name] = true
		case "false":
			values[name] = false
		case "", "nil", "null":
			values[name] = nil
		default:
			values[name] = raw
		}
	}
	return values
}

// ParseFlags defines and parses all command-line flags
func ParseFlags() *Flags {
	f, _ := parseFlags(flag.CommandLine, os.Args[1:])
	return f
}

func parseFlags(fs *flag.FlagSet, args []string) (*Flags, error) {
	f := &Flags{}

	// Commands
	f.Probe = fs.Bool("probe", false, "Check connection liveness")
	f.Query = fs.String("query", "", "Run SQL query; positional arguments are bound as parameters")
	f.Toggles = fs.Bool("toggles", false, "Print runtime toggle table")

	// Options
	f.Config = fs.String("config", "config.yaml", "Configuration file path")
	f.ProbeSQL = fs.String("probe-sql", "", "Probe statement (default: from config, empty = driver validity check)")
	f.Timeout = fs.Duration("timeout", 0, "Probe timeout (default: from config)")
	f.Types = fs.String("types", "", "Column type names for query parameters (comma-separated, e.g. int4,bit,interval)")
	fs.Var(&f.Set, "set", "Set runtime toggle: name=true|false|nil (repeatable)")
	f.Verbose = fs.Bool("verbose", false, "Enable debug logging")

	// Config Creation
	f.CreateConfigPG = fs.Bool("create-config-pg", false, "Create sample PostgreSQL config file")
	f.CreateConfigMySQL = fs.Bool("create-config-mysql", false, "Create sample MySQL config file")

	// Misc
	f.Version = fs.Bool("version", false, "Show version information")
	f.Help = fs.Bool("help", false, "Show detailed help with examples")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.Args = fs.Args()

	return f, nil
}

// ColumnTypes splits -types into per-parameter type names
func (f *Flags) ColumnTypes() []string {
	if *f.Types == "" {
		return nil
	}
	parts := strings.Split(*f.Types, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
