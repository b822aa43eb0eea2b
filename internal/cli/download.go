package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/investai/radar/internal/client"
	"github.com/investai/radar/internal/lifecycle"
	"github.com/investai/radar/internal/results"
	"github.com/investai/radar/internal/store"
	"github.com/investai/radar/pkg/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

const defaultDownloadConcurrency = 4

type DownloadOptions struct {
	GlobalOptions

	Candidate   string
	Name        string
	All         bool
	Each        bool
	Dir         string
	Upload      bool
	Bucket      string
	Concurrency int
}

func DefaultDownloadOptions() *DownloadOptions {
	return &DownloadOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Dir:           ".",
		Concurrency:   defaultDownloadConcurrency,
	}
}

func NewCmdDownload() *cobra.Command {
	o := DefaultDownloadOptions()
	cmd := &cobra.Command{
		Use:   "download JOB_ID",
		Short: "Download the report documents of a completed job.",
		Example: "download <job-id> --candidate 3 --name \"Acme Space\"\n" +
			"download <job-id> --all --dir reports/\n" +
			"download <job-id> --each --upload --bucket radar-reports",
		Args:         cobra.ExactArgs(1),
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
	cmd.MarkFlagsMutuallyExclusive("candidate", "all", "each")
	cmd.MarkFlagsOneRequired("candidate", "all", "each")
	cmd.MarkFlagsMutuallyExclusive("dir", "upload")
	return cmd
}

func (o *DownloadOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Candidate, "candidate", o.Candidate, "Download the report of this candidate id")
	fs.StringVar(&o.Name, "name", o.Name, "Candidate name used for the file name (looked up when omitted)")
	fs.BoolVar(&o.All, "all", o.All, "Download the portfolio report covering every candidate")
	fs.BoolVar(&o.Each, "each", o.Each, "Download the report of every candidate")
	fs.StringVar(&o.Dir, "dir", o.Dir, "Directory to write the documents to")
	fs.BoolVar(&o.Upload, "upload", o.Upload, "Upload the documents to the MinIO endpoint in $RADAR_MINIO_ENDPOINT instead of --dir")
	fs.StringVar(&o.Bucket, "bucket", o.Bucket, "Bucket used with --upload (defaults to $RADAR_MINIO_BUCKET)")
	fs.IntVar(&o.Concurrency, "concurrency", o.Concurrency, "Number of reports downloaded at once with --each")
}

func (o *DownloadOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.Name != "" && o.Candidate == "" {
		return fmt.Errorf("--name can only be used with --candidate")
	}
	if o.Concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1")
	}
	if o.Bucket != "" && !o.Upload {
		return fmt.Errorf("--bucket can only be used with --upload")
	}
	if o.Upload && (o.env == nil || !o.env.MinioEnabled()) {
		return fmt.Errorf("--upload requires RADAR_MINIO_ENDPOINT to be set")
	}
	return nil
}

func (o *DownloadOptions) Run(ctx context.Context, args []string) error {
	teardown, err := o.Setup(ctx)
	if err != nil {
		return err
	}
	defer teardown()

	jobID := args[0]
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	sink, err := o.sink(jobID)
	if err != nil {
		return err
	}

	d := &downloader{client: c, sink: sink, jobID: jobID, out: os.Stdout, errOut: os.Stderr}
	switch {
	case o.All:
		return d.portfolio(ctx)
	case o.Each:
		report, err := fetchReport(ctx, c, jobID)
		if err != nil {
			return err
		}
		return d.each(ctx, report.Candidates, o.Concurrency)
	default:
		name := o.Name
		if name == "" {
			name, err = lookupName(ctx, c, jobID, o.Candidate)
			if err != nil {
				return err
			}
		}
		return d.candidate(ctx, results.Candidate{ID: o.Candidate, Name: name})
	}
}

func (o *DownloadOptions) sink(jobID string) (store.Sink, error) {
	if !o.Upload {
		return store.NewDirSink(o.Dir)
	}
	m := o.env.Minio
	bucket := o.Bucket
	if bucket == "" {
		bucket = m.Bucket
	}
	return store.NewMinioSink(
		store.WithEndpoint(m.Endpoint),
		store.WithBucket(bucket),
		store.WithRegion(m.Region),
		store.WithPrefix(jobID),
		store.WithAccessKey(m.AccessKey),
		store.WithSecretKey(m.SecretKey),
		store.WithSSL(m.UseSSL),
	)
}

// lookupName returns the display name of a candidate from the job results.
func lookupName(ctx context.Context, c lifecycle.JobsAPI, jobID, candidateID string) (string, error) {
	report, err := fetchReport(ctx, c, jobID)
	if err != nil {
		return "", err
	}
	if candidate, ok := report.Find(candidateID); ok {
		return candidate.Name, nil
	}
	return "", fmt.Errorf("candidate %s not found in job %s", candidateID, jobID)
}

type reportDownloader interface {
	DownloadReport(ctx context.Context, jobID, candidateID string, dst io.Writer) (int64, error)
	DownloadPortfolio(ctx context.Context, jobID string, dst io.Writer) (int64, error)
}

var _ reportDownloader = (*client.JobsClient)(nil)

type downloader struct {
	client reportDownloader
	sink   store.Sink
	jobID  string
	out    io.Writer
	errOut io.Writer

	mu sync.Mutex
}

func (d *downloader) candidate(ctx context.Context, c results.Candidate) error {
	return d.save(ctx, store.ReportFileName(c.Name), func(w io.Writer) (int64, error) {
		return d.client.DownloadReport(ctx, d.jobID, c.ID, w)
	})
}

func (d *downloader) portfolio(ctx context.Context) error {
	return d.save(ctx, store.PortfolioFileName, func(w io.Writer) (int64, error) {
		return d.client.DownloadPortfolio(ctx, d.jobID, w)
	})
}

// each downloads every candidate report. A failed download does not stop the others;
// every failure is reported and returned together.
func (d *downloader) each(ctx context.Context, candidates []results.Candidate, concurrency int) error {
	if len(candidates) == 0 {
		return errors.New("no candidates matched, nothing to download")
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(concurrency)
	for _, c := range candidates {
		g.Go(func() error {
			if err := d.candidate(ctx, c); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d downloads failed: %w", len(errs), len(candidates), utilerrors.NewAggregate(errs))
	}
	return nil
}

func (d *downloader) save(ctx context.Context, name string, fill store.FillFunc) error {
	location, err := d.sink.Write(ctx, name, fill)
	if err != nil {
		metrics.IncreaseReportDownloadsMetric(metrics.DownloadStateFailed)
		alert := lifecycle.NewErrDownload(name, err)
		zap.S().Named("download").Errorw("download failed", "job", d.jobID, "file", name, "error", err)
		d.print(d.errOut, "Error: %v\n", alert)
		return alert
	}
	metrics.IncreaseReportDownloadsMetric(metrics.DownloadStateSuccess)
	d.print(d.out, "%s\n", location)
	return nil
}

func (d *downloader) print(w io.Writer, format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(w, format, args...)
}
