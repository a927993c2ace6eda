package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/perfscore/internal/adapters/repository"
	service "github.com/okian/perfscore/internal/app"
	"github.com/okian/perfscore/internal/config"
	"github.com/okian/perfscore/internal/domain/model"
	"github.com/okian/perfscore/pkg/logger"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type scoreOptions struct {
	dataset   string
	from      string
	to        string
	ref       string
	location  string
	employees []string
	top       int
	output    string
	timezone  string
}

func newScoreCmd() *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score and rank a cohort from a dataset file",
		Example: `  perfscore score --dataset data.yaml --from 2025-03-01 --to 2025-04-01 --ref 2025-03-31
  perfscore score --dataset data.json --location L1 --top 5 --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.dataset, "dataset", "d", "", "Dataset file (YAML, or JSON with a .json extension)")
	f.StringVar(&opts.from, "from", "", "Window start (RFC3339 or YYYY-MM-DD)")
	f.StringVar(&opts.to, "to", "", "Window end, exclusive (RFC3339 or YYYY-MM-DD)")
	f.StringVar(&opts.ref, "ref", "", "Reference date for warning ageing (default now)")
	f.StringVarP(&opts.location, "location", "l", "", "Only score this location")
	f.StringSliceVarP(&opts.employees, "employee", "e", nil, "Only score these employee ids")
	f.IntVarP(&opts.top, "top", "n", 10, "Rows to print; 0 prints all")
	f.StringVarP(&opts.output, "output", "o", outputTable, "Output format (table|json)")
	f.StringVar(&opts.timezone, "timezone", "", "IANA zone for day and month boundaries (default from config)")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

type scoreReport struct {
	ReferenceDate time.Time                        `json:"reference_date"`
	Window        model.Window                     `json:"window"`
	Employees     int                              `json:"employees"`
	Scores        []model.EmployeePerformanceScore `json:"scores"`
	Failures      []service.Failure                `json:"failures"`
}

func runScore(ctx context.Context, stdout, stderr io.Writer, opts *scoreOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.output != outputTable && opts.output != outputJSON {
		return fmt.Errorf("unknown output %q: use table or json", opts.output)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if opts.timezone != "" {
		cfg.Timezone = opts.timezone
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	loc := cfg.Location()

	if err := logger.Init(logger.WithWriter(stderr), logger.WithLevel("warn"), logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}

	ds, err := repository.LoadDataset(opts.dataset)
	if err != nil {
		return err
	}

	q := service.Query{LocationID: opts.location, EmployeeIDs: opts.employees}
	if q.Window.Start, err = model.ParseTime(opts.from, loc); err != nil {
		return err
	}
	if q.Window.End, err = model.ParseTime(opts.to, loc); err != nil {
		return err
	}
	if q.ReferenceDate, err = model.ParseTime(opts.ref, loc); err != nil {
		return err
	}
	if q.Window.Start.IsZero() != q.Window.End.IsZero() {
		return errors.New("--from and --to must be given together")
	}

	svc := service.New(
		service.WithSource(repository.NewMemorySource(ds)),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDefaultWindowDays(cfg.DefaultWindowDays),
		service.WithLocation(loc),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = svc.Stop(context.Background()) }()

	cohort, err := svc.Score(ctx, q)
	if err != nil {
		return err
	}

	scores := cohort.Board.All()
	if opts.top > 0 {
		scores = cohort.Board.TopN(opts.top)
	}
	report := scoreReport{
		ReferenceDate: cohort.ReferenceDate,
		Window:        cohort.Window,
		Employees:     cohort.Board.Len(),
		Scores:        scores,
		Failures:      cohort.Failures,
	}
	if report.Failures == nil {
		report.Failures = []service.Failure{}
	}

	if opts.output == outputJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err = io.WriteString(stdout, renderTable(report))
	return err
}
