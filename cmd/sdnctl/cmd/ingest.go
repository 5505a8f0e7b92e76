package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"sdnscreen/internal/platform/kafka"
	"sdnscreen/internal/sdn/fetch"
	"sdnscreen/internal/sdn/ingest"
	"sdnscreen/internal/sdn/metrics"
	"sdnscreen/internal/sdn/notify"
)

type ingestOptions struct {
	file        string
	url         string
	workers     int
	createTopic bool
	metricsFile string
}

func newIngestCmd(a *app) *cobra.Command {
	var opts ingestOptions
	c := &cobra.Command{
		Use:   "ingest",
		Short: "Denormalize a publication and publish it as the active snapshot",
		Long: "Reads the advanced XML publication from --file or downloads it from --url " +
			"(default: the configured source URL), denormalizes every party and replaces " +
			"the active snapshot. Nothing is published when the run fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.file != "" && opts.url != "" {
				return fmt.Errorf("--file and --url are mutually exclusive")
			}
			return a.runIngest(cmd.Context(), opts)
		},
	}
	c.Flags().StringVar(&opts.file, "file", "", "read the publication from a local file")
	c.Flags().StringVar(&opts.url, "url", "", "download the publication from this URL")
	c.Flags().IntVar(&opts.workers, "workers", 0, "denormalization workers (default from config)")
	c.Flags().BoolVar(&opts.createTopic, "create-topic", false, "create the notification topic if missing")
	c.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics in the Prometheus text format to this file")
	return c
}

func (a *app) runIngest(ctx context.Context, opts ingestOptions) error {
	input, sourceURL, err := a.openSource(ctx, opts)
	if err != nil {
		return err
	}
	defer input.Close()

	snapshots, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	workers := a.cfg.Ingest.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	pipelineOpts := []ingest.Option{
		ingest.WithLogger(a.log),
		ingest.WithMetrics(metrics.New(reg)),
		ingest.WithWorkers(workers),
	}

	client, err := kafka.New(ctx, a.cfg.Kafka)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
		notifier := notify.NewKafka(client, a.cfg.Kafka.Topic, a.log)
		if opts.createTopic {
			if err := notifier.EnsureTopic(ctx, 1, 1); err != nil {
				return err
			}
		}
		pipelineOpts = append(pipelineOpts, ingest.WithNotifier(notifier))
	}

	summary, runErr := ingest.New(snapshots, pipelineOpts...).Run(ctx, input, sourceURL)
	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
			a.log.WarnContext(ctx, "write metrics file", "path", opts.metricsFile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	return a.printJSON(summary)
}

// openSource returns the publication stream and the URL recorded on every
// record of the run.
func (a *app) openSource(ctx context.Context, opts ingestOptions) (io.ReadCloser, string, error) {
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return nil, "", fmt.Errorf("open publication: %w", err)
		}
		abs, err := filepath.Abs(opts.file)
		if err != nil {
			abs = opts.file
		}
		return f, "file://" + filepath.ToSlash(abs), nil
	}

	url := opts.url
	if url == "" {
		url = a.cfg.Source.URL
	}
	raw, err := fetch.NewHTTP(a.cfg.Source.FetchTimeout, a.cfg.Source.FetchRetries, a.log).Fetch(ctx, url)
	if err != nil {
		return nil, "", err
	}
	return io.NopCloser(bytes.NewReader(raw)), url, nil
}
