package app

import (
	"runtime"

	"github.com/spf13/pflag"
)

func registerCommonFlags(flags *pflag.FlagSet) {
	flags.StringP("source", "s", "", "Root folder of the reference file lists")
	flags.StringP("logging", "l", "", "Verbosity: Off, Error, Warn, Info, Debug or Trace")
}

func registerIndexingFlags(flags *pflag.FlagSet) {
	flags.StringP("index-location", "i", "", "Index directory")
	flags.IntP("overall-memory", "m", 0, "Writer memory budget in bytes")
	flags.String("mode", "", "Ingestion mode: parallel or sequential")
	flags.IntP("workers", "w", 0, "Parallel ingestion workers (default: number of CPUs)")
	flags.String("commit", "", "Commit policy: once or unit (default depends on mode)")
}

// RegisterIndexFlags registers the flags of the indexing tool
func RegisterIndexFlags(flags *pflag.FlagSet) {
	registerCommonFlags(flags)
	registerIndexingFlags(flags)
}

// RegisterServiceFlags registers the flags of the lookup service
func RegisterServiceFlags(flags *pflag.FlagSet) {
	registerCommonFlags(flags)
	registerIndexingFlags(flags)
	flags.StringP("host", "H", "", "Listen host")
	flags.IntP("port", "p", 0, "Listen port")
	flags.String("corpus-url", "", "Git URL of the reference corpus, cloned when no source is given")
	flags.Bool("mcp", true, "Serve the lookup tools over MCP at /sse")
}

// RegisterExportFlags registers the flags of the JSON-lines exporter
func RegisterExportFlags(flags *pflag.FlagSet) {
	registerCommonFlags(flags)
}

// defaultWorkers is used when settings carry no worker count.
func defaultWorkers() int {
	return runtime.NumCPU()
}
