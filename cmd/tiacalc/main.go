// Command tiacalc scores one set of inputs and prints the result.
//
//	tiacalc -ratings 4,4,4,4,4,4,4,4 -class 10:6 -class 10:6
//	tiacalc -file worksheet.yaml -format json
//
// Exit status is 0 on success, 1 when the configuration cannot be loaded or
// the result cannot be written, and 2 for invalid flags or input.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"

	"github.com/tiacalc/tiacalc/internal/api"
	"github.com/tiacalc/tiacalc/internal/config"
	"github.com/tiacalc/tiacalc/internal/worksheetfile"
	"github.com/tiacalc/tiacalc/pkg/logx"
	"github.com/tiacalc/tiacalc/pkg/scoring"
	"github.com/tiacalc/tiacalc/pkg/types"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

type options struct {
	file       string
	configPath string
	format     string
	ratings    *types.RatingSet
	classes    worksheetfile.ClassFlag
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, "tiacalc:", err)
		return exitUsage
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, "tiacalc:", err)
		return exitFailure
	}
	level, _ := logx.ParseLevel(cfg.Log.Level)
	slog.SetDefault(logx.New(stderr, logx.FormatText, level))

	ws, err := opts.worksheet()
	if err != nil {
		fmt.Fprintln(stderr, "tiacalc:", err)
		return exitUsage
	}

	p := cfg.Policy.Policy()
	res := p.Score(ws.Ratings, ws.Classes.Records())
	slog.Debug("tiacalc: scored",
		logx.FieldPoints, res.TotalPoints,
		logx.FieldDesignation, string(res.Designation),
	)
	resp := api.NewScoreResponse(p, res)

	if err := write(stdout, opts.format, p, resp); err != nil {
		fmt.Fprintln(stderr, "tiacalc: write result:", err)
		return exitFailure
	}
	return exitOK
}

func write(w io.Writer, format string, p scoring.Policy, resp api.ScoreResponse) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return writeText(w, p, resp)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("tiacalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.file, "file", "", "YAML worksheet with ratings and classes")
	fs.StringVar(&opts.configPath, "config", "", "config file with the scoring policy (defaults when empty)")
	fs.StringVar(&opts.format, "format", "text", "output format: text | json")
	fs.Func("ratings", "8 comma-separated ratings in dimension order, or dim=value pairs", func(s string) error {
		rs, err := worksheetfile.ParseRatings(s)
		if err != nil {
			return err
		}
		opts.ratings = &rs
		return nil
	})
	fs.Var(&opts.classes, "class", "class as size:met (repeatable)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if opts.format != "text" && opts.format != "json" {
		return opts, fmt.Errorf("-format %q: want text or json", opts.format)
	}
	if opts.file == "" && opts.ratings == nil && len(opts.classes) == 0 {
		return opts, errors.New("nothing to score: give -file, -ratings or -class")
	}
	return opts, nil
}

// worksheet assembles the inputs. Flags override the file.
func (o options) worksheet() (types.Worksheet, error) {
	ws := types.Worksheet{Ratings: types.NewRatingSet(), Classes: types.NewClassList()}
	if o.file != "" {
		var err error
		if ws, err = worksheetfile.Load(o.file); err != nil {
			return ws, err
		}
	}
	if o.ratings != nil {
		ws.Ratings = *o.ratings
	}
	if len(o.classes) > 0 {
		ws.Classes = types.NewClassList(o.classes...)
	}
	return ws, nil
}

// writeText renders r as an aligned table followed by the diagnostics. Lines
// without tabs pass through the tabwriter unaligned.
func writeText(w io.Writer, p scoring.Policy, r api.ScoreResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Composite average\t%.2f / %.0f\t%.1f pts\n", r.CompositeAvg, scoring.MaxRating, r.RatingPoints)
	fmt.Fprintf(tw, "Student growth\t%.1f%% (%d of %d)\t%.1f pts\n", r.GrowthPct, r.TotalMet, r.TotalStudents, r.GrowthPoints)
	fmt.Fprintf(tw, "Total points\t%.1f / %.0f\t\n", r.TotalPoints, r.MaxPoints)
	fmt.Fprintf(tw, "Designation\t%s\t\n", r.Designation)
	fmt.Fprintf(tw, "Rating floor %.1f\t%s\t\n", p.RatingFloor, metText(r.MeetsRatingThreshold))
	fmt.Fprintf(tw, "Growth floor %.0f%%\t%s\t\n", p.GrowthFloor, metText(r.MeetsGrowthThreshold))
	fmt.Fprintf(tw, "Eligible\t%s\t\n", yesNo(r.OverallEligible))

	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(tw)
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(tw, "[%s] %s\n", d.Level, d.Detail)
	}
	return tw.Flush()
}

func metText(ok bool) string {
	if ok {
		return "met"
	}
	return "not met"
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
