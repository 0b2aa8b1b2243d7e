package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"neowatch/internal/config"
	"neowatch/internal/dates"
	"neowatch/internal/feed"
	"neowatch/internal/feed/neows"
	"neowatch/internal/feed/sample"
	"neowatch/internal/logging"
	"neowatch/internal/pipeline"
	"neowatch/internal/store"
	"neowatch/internal/store/sqlite"
)

// Exit codes are distinct per failure stage so scripts can branch on
// them.
const (
	exitOK             = 0
	exitUsage          = 2
	exitBadDateRange   = 3
	exitFetch          = 4
	exitTransform      = 5
	exitLoad           = 6
	exitNotImplemented = 7
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUsage)
	}

	switch os.Args[1] {
	case "feed":
		os.Exit(runFeed(os.Args[2:]))
	case "load":
		os.Exit(runLoad(os.Args[2:]))
	case "browse":
		os.Exit(runBrowse(os.Args[2:]))
	default:
		usage()
		os.Exit(exitUsage)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: neowatch <feed|load|browse> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "feed options:")
	fmt.Fprintln(os.Stderr, "  -start   start date YYYY-MM-DD, inclusive (required)")
	fmt.Fprintln(os.Stderr, "  -end     end date YYYY-MM-DD, inclusive (required)")
	fmt.Fprintln(os.Stderr, "  -demo    use the local sample fixture instead of the API")
	fmt.Fprintln(os.Stderr, "  -live    use the live NeoWs API")
	fmt.Fprintln(os.Stderr, "  -csv     csv output path")
	fmt.Fprintln(os.Stderr, "  -db      sqlite database path (empty disables persistence)")
	fmt.Fprintln(os.Stderr, "  -table   warehouse table name")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "load options:")
	fmt.Fprintln(os.Stderr, "  -csv     csv file to load (defaults to the feed output path)")
	fmt.Fprintln(os.Stderr, "  -db      sqlite database path")
	fmt.Fprintln(os.Stderr, "  -table   warehouse table name")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "browse options:")
	fmt.Fprintln(os.Stderr, "  -pages   number of pages to fetch (not implemented)")
}

func runFeed(args []string) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	start := fs.String("start", "", "start date YYYY-MM-DD (inclusive)")
	end := fs.String("end", "", "end date YYYY-MM-DD (inclusive)")
	demo := fs.Bool("demo", false, "use the local sample fixture")
	live := fs.Bool("live", false, "use the live NeoWs API")
	csvPath := fs.String("csv", cfg.Output.CSVPath, "csv output path")
	dbPath := fs.String("db", cfg.Output.DBPath, "sqlite database path (empty disables persistence)")
	table := fs.String("table", cfg.Output.Table, "warehouse table name")
	fs.Parse(args)

	if *demo && *live {
		fmt.Fprintln(os.Stderr, "feed: -demo and -live are mutually exclusive")
		return exitUsage
	}
	if *start == "" || *end == "" {
		fmt.Fprintln(os.Stderr, "feed: -start and -end are required")
		return exitUsage
	}

	startDate, endDate, err := dates.ValidateRange(*start, *end)
	if err != nil {
		fmt.Fprintln(os.Stderr, "feed: invalid date range:", err)
		return exitBadDateRange
	}

	if *demo {
		cfg.Demo = true
	} else if *live {
		cfg.Demo = false
	}

	source, err := buildSource(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "feed:", err)
		return exitFetch
	}

	st, err := openStore(*dbPath, *table)
	if err != nil {
		fmt.Fprintln(os.Stderr, "feed:", err)
		return exitLoad
	}
	defer st.Close()

	p := &pipeline.Pipeline{
		Source:  source,
		Store:   st,
		CSVPath: *csvPath,
		Table:   *table,
		Log:     logging.New(cfg.LogLevel),
	}

	result, err := p.RunFeed(context.Background(), startDate, endDate)
	if err != nil {
		return reportStageError(err)
	}

	fmt.Printf("feed ETL complete (rows=%d csv=%s db=%s table=%s)\n",
		result.Written, result.CSVPath, *dbPath, *table,
	)
	return exitOK
}

func runLoad(args []string) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("load", flag.ExitOnError)
	csvPath := fs.String("csv", cfg.Output.CSVPath, "csv file to load")
	dbPath := fs.String("db", cfg.Output.DBPath, "sqlite database path")
	table := fs.String("table", cfg.Output.Table, "warehouse table name")
	fs.Parse(args)

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "load: -db is required")
		return exitUsage
	}

	st, err := sqlite.NewWithTable(*dbPath, *table)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		return exitLoad
	}
	defer st.Close()

	p := &pipeline.Pipeline{
		Store: st,
		Table: *table,
		Log:   logging.New(cfg.LogLevel),
	}

	result, err := p.RunLoadCSV(context.Background(), *csvPath)
	if err != nil {
		return reportStageError(err)
	}

	fmt.Printf("load complete (rows=%d db=%s table=%s)\n", result.Written, *dbPath, *table)
	return exitOK
}

func runBrowse(args []string) int {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	pages := fs.Int("pages", 1, "number of pages to fetch")
	fs.Parse(args)

	fmt.Fprintf(os.Stderr, "browse mode is not implemented (pages=%d)\n", *pages)
	return exitNotImplemented
}

func buildSource(cfg config.Config) (feed.Source, error) {
	if cfg.Demo {
		return sample.New(cfg.Sample.Path), nil
	}
	return neows.NewWithConfig(neows.Config{
		BaseURL:    cfg.API.BaseURL,
		APIKey:     cfg.API.Key,
		Timeout:    cfg.API.Timeout(),
		MaxRetries: cfg.API.MaxRetries,
	})
}

func openStore(path, table string) (store.Store, error) {
	if path == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.NewWithTable(path, table)
}

func reportStageError(err error) int {
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		fmt.Fprintln(os.Stderr, "pipeline failed:", err)
		return exitLoad
	}

	fmt.Fprintf(os.Stderr, "pipeline failed in %s stage: %v\n", stageErr.Stage, stageErr.Err)
	switch stageErr.Stage {
	case pipeline.StageFetch:
		return exitFetch
	case pipeline.StageTransform:
		return exitTransform
	default:
		return exitLoad
	}
}
