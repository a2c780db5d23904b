package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/dynoinc/incidentreport/internal/config"
	"github.com/dynoinc/incidentreport/internal/incident"
	"github.com/dynoinc/incidentreport/internal/output"
	"github.com/dynoinc/incidentreport/internal/pipeline"
	"github.com/dynoinc/incidentreport/internal/report"
)

var formats = []string{output.FormatPretty, output.FormatCSV, output.FormatConfluence, output.FormatSlack}

type options struct {
	teams     string
	services  string
	format    string
	group     string
	fuzzy     bool
	fuzzScore int
	full      bool
	report    bool
	debug     bool
	key       string
	profile   string
	mcp       bool
	version   bool
	help      bool

	dates []string
	// flags given explicitly on the command line
	set map[string]bool

	slackChannel    string
	confluenceSpace string
	confluenceTitle string
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	o := &options{set: map[string]bool{}}

	fs := flag.NewFlagSet("pd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: pd [flags] [since [until]]")
		fs.PrintDefaults()
	}

	fs.StringVar(&o.teams, "t", "", "Comma separated PagerDuty team ids")
	fs.StringVar(&o.services, "s", "", "Comma separated PagerDuty service ids")
	fs.StringVar(&o.format, "o", output.FormatPretty, "Output format: pretty, csv, confluence or slack")
	fs.StringVar(&o.group, "g", "", "Count incidents by this column")
	fs.BoolVar(&o.fuzzy, "z", false, "Group similar values together")
	fs.IntVar(&o.fuzzScore, "m", report.DefaultThreshold, "Similarity (0-100) needed to join a fuzzy group")
	fs.BoolVar(&o.full, "f", false, "Do not truncate descriptions")
	fs.BoolVar(&o.report, "r", false, "Full report: listing plus counts by description and by ack")
	fs.BoolVar(&o.debug, "x", false, "Debug logging")
	fs.StringVar(&o.key, "k", "", "PagerDuty API key (default: $PD_PAGERDUTY_API_KEY or ~/.pd)")
	fs.StringVar(&o.profile, "config", "", "YAML profile with saved options")
	fs.BoolVar(&o.mcp, "mcp", false, "Serve the incident_report tool over MCP on stdio")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	fs.BoolVar(&o.help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	o.dates = fs.Args()
	return o, fs, nil
}

// applyProfile fills options that were not given on the command line.
func (o *options) applyProfile(p *config.Profile) {
	if !o.set["t"] && len(p.Teams) > 0 {
		o.teams = strings.Join(p.Teams, ",")
	}
	if !o.set["s"] && len(p.Services) > 0 {
		o.services = strings.Join(p.Services, ",")
	}
	if !o.set["o"] && p.Format != "" {
		o.format = p.Format
	}
	if !o.set["g"] && p.Group != "" {
		o.group = p.Group
	}
	if !o.set["z"] {
		o.fuzzy = p.Fuzzy
	}
	if !o.set["m"] {
		o.fuzzScore = p.Threshold()
	}
	if !o.set["f"] {
		o.full = p.Full
	}
	if !o.set["r"] {
		o.report = p.Report
	}
	if p.Confluence != nil {
		o.confluenceSpace = p.Confluence.SpaceKey
		o.confluenceTitle = p.Confluence.Title
	}
	if p.Slack != nil {
		o.slackChannel = p.Slack.ChannelID
	}
}

func (o *options) pipelineOptions(now time.Time) (pipeline.Options, error) {
	if !slices.Contains(formats, o.format) {
		return pipeline.Options{}, fmt.Errorf("unknown output format %q", o.format)
	}

	if o.set["g"] && strings.TrimSpace(o.group) == "" {
		return pipeline.Options{}, errors.New("the group flag (-g) can not be empty")
	}

	window, err := incident.ParseWindow(o.dates, now)
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		TeamIDs:    config.SplitList(o.teams),
		ServiceIDs: config.SplitList(o.services),
		Window:     window,
		Full:       o.full,
		Group:      o.group,
		FullReport: o.report,
		Grouping: report.GroupOptions{
			Fuzzy:     o.fuzzy,
			Threshold: o.fuzzScore,
		},
		Debug: o.debug,
	}
	if len(opts.TeamIDs) == 0 {
		return pipeline.Options{}, errors.New("at least one team id is required (-t)")
	}
	if len(opts.ServiceIDs) == 0 {
		return pipeline.Options{}, errors.New("at least one service id is required (-s)")
	}

	if err := opts.Validate(); err != nil {
		return pipeline.Options{}, err
	}

	return opts, nil
}
