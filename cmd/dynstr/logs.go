package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"dynstr-go/internal/fn"
	"dynstr-go/pkg/log"
)

// timeFormats are tried in order when a time spec is not a duration.
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimeSpec parses either a duration relative to now ("1h", "30m") or an
// absolute timestamp. Timestamps without an offset are read in now's zone.
func parseTimeSpec(spec string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(spec); err == nil {
		return now.Add(-d), nil
	}
	for _, layout := range timeFormats {
		if ts, err := time.ParseInLocation(layout, spec, now.Location()); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time specification: '%s'. Use relative duration (e.g., '1h', '30m') or absolute format (e.g., '2023-10-27T15:04:05Z')", spec)
}

var logsCommand = &cli.Command{
	Name:      "logs",
	Usage:     "Retrieve JSON log entries from the SQLite log database",
	UsageText: "dynstr logs [-f PATH] [--since TIME_SPEC [--until TIME_SPEC]] [-n NUMBER]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "dbfile",
			Aliases: []string{"f"},
			Usage:   "Path to the SQLite log database file `PATH` (defaults to log_db from the config)",
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "Number of most recent entries `NUMBER`, or the limit with --since",
			Value:   log.DefaultLimit,
		},
		&cli.StringFlag{
			Name:    "since",
			Aliases: []string{"s"},
			Usage:   "Start time `TIME_SPEC` (e.g., '1h', '2023-10-27T10:00:00Z')",
		},
		&cli.StringFlag{
			Name:    "until",
			Aliases: []string{"u"},
			Usage:   "End time `TIME_SPEC`, requires --since",
		},
	},
	Action: logsCmd,
}

func logsCmd(c *cli.Context) error {
	dbFile := fn.Or(c.String("dbfile"), rt.cfg.LogDB)
	if dbFile == "" {
		return cli.Exit("Error: no log database, use --dbfile or set log_db.", 1)
	}
	if _, err := os.Stat(dbFile); err != nil {
		return cli.Exit(fmt.Sprintf("Error: Database file not found at '%s'", dbFile), 1)
	}
	if c.IsSet("until") && !c.IsSet("since") {
		return cli.Exit("Error: --until requires --since.", 1)
	}

	if err := log.Init(dbFile); err != nil {
		return cli.Exit(fmt.Sprintf("Error opening log database: %v", err), 1)
	}

	count := c.Int("count")
	if count <= 0 {
		return cli.Exit("Error: --count (-n) must be a positive number.", 1)
	}

	var (
		results []log.LogEntry
		err     error
		now     = time.Now()
	)
	if c.IsSet("since") {
		start, perr := parseTimeSpec(c.String("since"), now)
		if perr != nil {
			return cli.Exit(fmt.Sprintf("Error parsing start time: %v", perr), 1)
		}
		end := now
		if c.IsSet("until") {
			if end, perr = parseTimeSpec(c.String("until"), now); perr != nil {
				return cli.Exit(fmt.Sprintf("Error parsing end time: %v", perr), 1)
			}
		}
		results, err = log.GetLogsBetween(start, end, count)
	} else {
		results, err = log.GetLastNLogs(count)
	}
	if err != nil {
		if errors.Is(err, log.ErrNotInitialized) {
			return cli.Exit("Internal Error: Logger DB handle became unavailable.", 2)
		}
		return cli.Exit(fmt.Sprintf("Error retrieving logs: %v", err), 1)
	}

	if len(results) == 0 {
		fmt.Fprintln(c.App.ErrWriter, "No log entries found matching the criteria.")
		return nil
	}
	for _, entry := range results {
		fmt.Fprintln(c.App.Writer, entry.LogData)
	}
	return nil
}
