package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jonathan/company-lookup/internal/config"
	"github.com/jonathan/company-lookup/internal/describe"
	"github.com/jonathan/company-lookup/internal/ingestion"
	"github.com/jonathan/company-lookup/internal/observability"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Describe one or more companies",
	Long: `Collects company names from --file (CSV first column or one name per PDF line) and --name,
searches the web for each name, and streams a description written by the model.

Names are processed one at a time in order; the first failure stops the run.
With --export the descriptions are written to the export file (default comp_text.txt).`,
	RunE: runDescribeCmd,
}

var (
	describeFlags  sharedFlags
	describeName   string
	describeFile   string
	describeExport bool
	describeStream bool
)

func init() {
	describeFlags.register(describeCmd)
	describeCmd.Flags().StringVarP(&describeName, "name", "n", "", "Company name (appended after names from --file)")
	describeCmd.Flags().StringVarP(&describeFile, "file", "f", "", "CSV or PDF file with company names")
	describeCmd.Flags().BoolVarP(&describeExport, "export", "e", false, "Write the descriptions to the export file when done")
	describeCmd.Flags().BoolVar(&describeStream, "stream", true, "Print the reply as it streams in (otherwise print each finished description)")

	rootCmd.AddCommand(describeCmd)
}

func runDescribeCmd(cmd *cobra.Command, _ []string) error {
	if describeName == "" && describeFile == "" {
		return fmt.Errorf("either --name or --file is required")
	}

	cfg, err := resolveConfig(cmd, &describeFlags)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	opts := describeOptions{
		Name:   describeName,
		File:   describeFile,
		Export: describeExport,
		Stream: describeStream,
	}
	return runDescribe(ctx, cmd.OutOrStdout(), cfg, rt.describer, opts)
}

type describeOptions struct {
	Name   string
	File   string
	Export bool
	Stream bool
}

// runDescribe collects names, describes them in order and optionally exports the replies.
// The chat history is printed even when the run stops early.
func runDescribe(ctx context.Context, out io.Writer, cfg *config.Config, d *describe.Describer, opts describeOptions) error {
	printer := observability.NewPrinter(out)

	var upload *ingestion.Upload
	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", opts.File, err)
		}
		upload = &ingestion.Upload{Filename: filepath.Base(opts.File), Data: data}
	}

	coll, err := ingestion.Collect(opts.Name, upload, ingestion.CollectOptions{Dedupe: cfg.DedupeNames})
	if err != nil {
		return err
	}
	printer.PrintCollection(coll)
	if len(coll.Names) == 0 {
		return fmt.Errorf("no company names found")
	}

	state := describe.NewState(cfg.ExportPath)
	state.Names = coll.Names
	if d.Recorder != nil {
		if err := d.Recorder.CreateSession(ctx, state.ID); err != nil {
			log.Printf("Warning: failed to persist session %s: %v", state.ID, err)
		}
	}

	total := len(coll.Names)
	_, runErr := d.Describe(ctx, state, coll.Names, func(ev describe.Event) error {
		var err error
		switch ev.Type {
		case describe.EventNameStarted:
			if opts.Stream {
				_, err = fmt.Fprintf(out, "\n▶ (%d/%d) %s\n", ev.Index+1, total, ev.Name)
			}
		case describe.EventChunk:
			if opts.Stream {
				_, err = io.WriteString(out, ev.Text)
			}
		case describe.EventDescription:
			if opts.Stream {
				_, err = io.WriteString(out, "\n")
			} else {
				printer.PrintResult(ev.Index, describe.Result{Name: ev.Name, Description: ev.Text})
			}
		}
		return err
	})

	printer.PrintTranscript(state.Transcript.Entries())
	if runErr != nil {
		return runErr
	}

	if opts.Export {
		content, err := d.Export(ctx, state)
		if err != nil {
			return fmt.Errorf("failed to export descriptions: %w", err)
		}
		printer.PrintExport(state.ExportPath, content)
	}
	return nil
}
