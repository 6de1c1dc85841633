package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/csvexport/internal/audit"
	"github.com/mrlokans/csvexport/internal/config"
	"github.com/mrlokans/csvexport/internal/csvbuild"
	"github.com/mrlokans/csvexport/internal/database"
	auditRepo "github.com/mrlokans/csvexport/internal/database/audit"
	"github.com/mrlokans/csvexport/internal/delivery"
	"github.com/mrlokans/csvexport/internal/entities"
	"github.com/mrlokans/csvexport/internal/entrypoint"
	"github.com/mrlokans/csvexport/internal/exporters"
	"github.com/mrlokans/csvexport/internal/snapshot"
)

// ExportCommand converts a JSON dataset file into a CSV file.
type ExportCommand struct {
	Input        string
	Output       string
	FieldSep     string
	TxtDelim     string
	DecimalSep   string
	Charset      string
	Columns      string
	Labels       string
	Header       bool
	QuoteStrings bool
	AddBOM       bool
	DatabasePath string
	Record       bool

	// explicit holds the names of flags given on the command line.
	explicit map[string]bool

	// stdin and stdout are swapped in tests.
	stdin  io.Reader
	stdout io.Writer
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{stdin: os.Stdin, stdout: os.Stdout}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	registerOptionFlags(fs, cmd)

	fs.StringVar(&cmd.Input, "input", "", "JSON dataset file, or - for stdin (required)")
	fs.StringVar(&cmd.Output, "output", "-", "CSV file to write, or - for stdout")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database used with -record")
	fs.BoolVar(&cmd.Record, "record", false, "Record the outcome in the export history")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export -input <file> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Convert a JSON array of records into CSV.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s export -input people.json -output people.csv -header\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s export -input people.json -sep semicolon -decimal , -columns name,age\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  cat people.json | %s export -input - -labels name=Name,age=Age -header\n", os.Args[0])
	}

	if err := parseFlagSet(fs, args, cmd); err != nil {
		return err
	}

	if cmd.Input == "" {
		fs.Usage()
		return fmt.Errorf("input is required")
	}

	return nil
}

// registerOptionFlags binds the CSV option flags shared by export and watch.
func registerOptionFlags(fs *flag.FlagSet, cmd *ExportCommand) {
	fs.StringVar(&cmd.FieldSep, "sep", "", "Field separator: a character or tab, comma, semicolon, pipe, space, colon")
	fs.StringVar(&cmd.TxtDelim, "delim", "", "Text delimiter (default \")")
	fs.StringVar(&cmd.DecimalSep, "decimal", "", "Decimal separator for numbers (default .)")
	fs.StringVar(&cmd.Charset, "charset", "", "Output charset, e.g. utf-8, windows-1252")
	fs.StringVar(&cmd.Columns, "columns", "", "Comma-separated column order")
	fs.StringVar(&cmd.Labels, "labels", "", "Comma-separated header labels, e.g. name=Name,age=Age")
	fs.BoolVar(&cmd.Header, "header", false, "Write a header row")
	fs.BoolVar(&cmd.QuoteStrings, "quote", false, "Quote every field")
	fs.BoolVar(&cmd.AddBOM, "bom", false, "Prefix the output with a UTF-8 byte order mark")
}

// parseFlagSet parses args and records which flags were given.
func parseFlagSet(fs *flag.FlagSet, args []string, cmd *ExportCommand) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.explicit = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { cmd.explicit[f.Name] = true })
	return nil
}

// flagValue returns value when the flag was given or is on, so -header=false
// can switch off an EXPORT_HEADER default.
func (cmd *ExportCommand) flagValue(name string, value bool) *bool {
	if value || cmd.explicit[name] {
		return &value
	}
	return nil
}

// Options combines the flags with the EXPORT_* environment defaults.
func (cmd *ExportCommand) Options(defaults config.Export) (csvbuild.Options, error) {
	labels, err := parseLabels(cmd.Labels)
	if err != nil {
		return csvbuild.Options{}, err
	}
	return defaults.Merge(csvbuild.Overrides{
		FieldSep:           cmd.FieldSep,
		TxtDelim:           cmd.TxtDelim,
		DecimalSep:         cmd.DecimalSep,
		QuoteStrings:       cmd.flagValue("quote", cmd.QuoteStrings),
		Header:             cmd.flagValue("header", cmd.Header),
		ColumnOrder:        splitList(cmd.Columns),
		Label:              labels,
		AddByteOrderMarker: cmd.flagValue("bom", cmd.AddBOM),
		Charset:            cmd.Charset,
	}), nil
}

func (cmd *ExportCommand) Run() error {
	cfg := config.NewConfig()

	opts, err := cmd.Options(cfg.Export)
	if err != nil {
		return err
	}

	notifiers := []exporters.Notifier{exporters.LogNotifier{}}
	if cmd.Record {
		db, err := database.NewDatabase(cmd.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		history := audit.NewService(auditRepo.NewRepository(db.DB))
		defer history.Wait()
		notifiers = append(notifiers, history)
	}

	orchestrator := entrypoint.NewPipeline(nil, notifiers...)
	outcome := orchestrator.RequestExport(context.Background(), cmd.request(opts))

	switch outcome.Status {
	case exporters.StatusFailed:
		return outcome.Err
	case exporters.StatusSkipped:
		fmt.Fprintln(os.Stderr, outcome.Message)
	}
	return nil
}

func (cmd *ExportCommand) request(opts csvbuild.Options) exporters.Request {
	req := exporters.Request{
		Options: opts,
		Origin:  string(entities.ExportOriginCLI),
	}

	if cmd.Input == "-" {
		in := cmd.stdin
		req.Data = csvbuild.SourceFunc(func(context.Context) (csvbuild.Dataset, error) {
			return csvbuild.DecodeDataset(in)
		})
	} else {
		req.Data = snapshot.FileSource(cmd.Input)
	}

	if cmd.Output == "" || cmd.Output == "-" {
		req.Platform = &writerSaver{w: cmd.stdout}
		if cmd.Input != "-" {
			req.Filename = snapshot.FilenameFor(cmd.Input)
		}
	} else {
		req.Platform = delivery.NewFileSaver(filepath.Dir(cmd.Output))
		req.Filename = filepath.Base(cmd.Output)
	}
	return req
}

// writerSaver saves artifacts by writing their bytes to w.
type writerSaver struct {
	w io.Writer
}

func (s *writerSaver) Name() string { return "stdout" }

func (s *writerSaver) SaveBlob(_ context.Context, artifact delivery.Artifact) error {
	_, err := s.w.Write(artifact.Data)
	return err
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLabels(s string) (map[string]string, error) {
	items := splitList(s)
	if len(items) == 0 {
		return nil, nil
	}
	labels := make(map[string]string, len(items))
	for _, item := range items {
		key, label, ok := strings.Cut(item, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid label %q, expected key=Label", item)
		}
		labels[key] = label
	}
	return labels, nil
}
