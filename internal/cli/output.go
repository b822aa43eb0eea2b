package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/investai/radar/internal/results"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

func validateOutput(output string) error {
	if len(output) > 0 && !funk.Contains(legalOutputTypes, output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

func bindOutput(fs *pflag.FlagSet, output *string) {
	fs.StringVarP(output, "output", "o", *output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

// printObject writes obj as json or yaml. It returns false for the table format.
func printObject(w io.Writer, obj any, output string) (bool, error) {
	switch output {
	case jsonFormat:
		marshalled, err := json.Marshal(obj)
		if err != nil {
			return true, fmt.Errorf("marshalling %T: %w", obj, err)
		}
		fmt.Fprintf(w, "%s\n", string(marshalled))
		return true, nil
	case yamlFormat:
		marshalled, err := yaml.Marshal(obj)
		if err != nil {
			return true, fmt.Errorf("marshalling %T: %w", obj, err)
		}
		fmt.Fprintf(w, "%s\n", string(marshalled))
		return true, nil
	default:
		return false, nil
	}
}

func printReport(w io.Writer, report results.Report, output string) error {
	if done, err := printObject(w, report, output); done {
		return err
	}
	if report.NoMatches {
		fmt.Fprintln(w, "No candidates matched your investment criteria.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 8, 1, '\t', 0)
	fmt.Fprintln(tw, "RANK\tID\tNAME\tSECTOR\tSTAGE\tFIT\tSUCCESS\tMARKET FIT\tTECH\tCOMPETITION")
	for i, c := range report.Candidates {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			i+1, c.ID, c.Name, c.Sector, c.Stage, c.FitScore,
			c.Metrics.SuccessRate, c.Metrics.MarketFit, c.Metrics.TechCredibility, c.Metrics.Competition)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	a := report.Aggregate
	fmt.Fprintf(w, "\n%d candidates. Average success rate %d%%, market fit %d%%, tech credibility %d%%, competition %d%%\n",
		len(report.Candidates), a.SuccessRate, a.MarketFit, a.TechCredibility, a.Competition)
	return nil
}
