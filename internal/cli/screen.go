package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	api "github.com/investai/radar/api/v1alpha1"
	"github.com/investai/radar/internal/client"
	"github.com/investai/radar/internal/config"
	"github.com/investai/radar/internal/lifecycle"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ScreenOptions struct {
	GlobalOptions

	Files      []string
	SheetURL   string
	Thesis     string
	Sector     string
	Stage      string
	Geography  string
	TicketSize string
	Export     string
	Output     string
}

func DefaultScreenOptions() *ScreenOptions {
	return &ScreenOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdScreen() *cobra.Command {
	o := DefaultScreenOptions()
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Submit pitch decks or a deal sheet for screening and wait for the results.",
		Example: "screen -f acme.pdf -f pipeline.csv --thesis \"B2B fintech in Europe\" --sector fintech --ticket-size \"$1M-$5M\"\n" +
			"screen --sheet-url https://docs.google.com/spreadsheets/d/<id> --export results.xlsx",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ScreenOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringArrayVarP(&o.Files, "file", "f", o.Files, "Pitch deck or deal list to upload (pdf, csv, xlsx, xls). Repeatable.")
	fs.StringVar(&o.SheetURL, "sheet-url", o.SheetURL, "Link to a shared spreadsheet listing the deals")
	fs.StringVar(&o.Thesis, "thesis", o.Thesis, "Free text investment thesis")
	fs.StringVar(&o.Sector, "sector", o.Sector, "Sector filter")
	fs.StringVar(&o.Stage, "stage", o.Stage, "Funding stage filter")
	fs.StringVar(&o.Geography, "geography", o.Geography, "Geography filter")
	fs.StringVar(&o.TicketSize, "ticket-size", o.TicketSize, "Ticket size range, for example \"$1M-$5M\"")
	fs.StringVar(&o.Export, "export", o.Export, "Also write the results to this xlsx file")
	bindOutput(fs, &o.Output)
}

func (o *ScreenOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if err := validateOutput(o.Output); err != nil {
		return err
	}

	filters := o.filters()
	return config.ValidateSubmission(config.SubmissionForm{
		Files:     o.Files,
		SheetURL:  o.SheetURL,
		TicketMin: filters.TicketMin,
		TicketMax: filters.TicketMax,
	})
}

func (o *ScreenOptions) filters() api.Filters {
	return api.NewFilters(o.Thesis, o.Sector, o.Stage, o.Geography, o.TicketSize)
}

func (o *ScreenOptions) Run(ctx context.Context, args []string) error {
	teardown, err := o.Setup(ctx)
	if err != nil {
		return err
	}
	defer teardown()

	uploads := make([]client.Upload, 0, len(o.Files))
	for _, path := range o.Files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		uploads = append(uploads, client.Upload{Name: filepath.Base(path), Content: f})
	}

	submission := lifecycle.Submission{
		Files:    uploads,
		SheetURL: o.SheetURL,
		Filters:  o.filters(),
	}

	return o.follow(ctx, os.Stdout, os.Stderr, followOptions{Output: o.Output, Export: o.Export}, func(ctrl *lifecycle.Controller) error {
		jobID, err := ctrl.Submit(ctx, submission)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Job %s created\n", jobID)
		return nil
	})
}
