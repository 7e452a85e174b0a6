package cli

import (
	"flag"
)

// FeaturizeFlags are the command line flags for the batch featurize command.
type FeaturizeFlags struct {
	ConfigPath string
	Input      string
	Output     string
	Workers    int
	DateMode   string
	NoDB       bool
	Verbose    bool
}

// ParseFeaturizeFlags parses featurize flags from the command line.
func ParseFeaturizeFlags() FeaturizeFlags {
	var flags FeaturizeFlags
	flag.StringVar(&flags.ConfigPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&flags.Input, "input", "", "Input transactions CSV (required)")
	flag.StringVar(&flags.Output, "output", "features.csv", "Output features CSV")
	flag.IntVar(&flags.Workers, "workers", 0, "Worker count (0 = number of CPUs)")
	flag.StringVar(&flags.DateMode, "date-mode", "", "Override date mode: strict or lenient")
	flag.BoolVar(&flags.NoDB, "no-db", false, "Skip recording the run in the database")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// ServeFlags are the command line flags for the API server command.
type ServeFlags struct {
	ConfigPath string
	Port       int
}

// ParseServeFlags parses serve flags from the command line.
func ParseServeFlags() ServeFlags {
	var flags ServeFlags
	flag.StringVar(&flags.ConfigPath, "config", "", "Path to YAML config file (optional)")
	flag.IntVar(&flags.Port, "port", 0, "Override the configured listen port")
	flag.Parse()
	return flags
}
