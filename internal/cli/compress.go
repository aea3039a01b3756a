package cli

import (
	"fmt"
	"io"

	"github.com/dunamismax/photocompress/internal/config"
	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/dunamismax/photocompress/internal/pipeline"
	"github.com/dunamismax/photocompress/internal/runner"
	"github.com/dunamismax/photocompress/internal/source"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type compressFlags struct {
	quality     int
	maxWidth    int
	format      string
	output      string
	archiveName string
	upload      bool
	noCache     bool
}

func newCompressCommand(root *rootOptions) *cobra.Command {
	flags := &compressFlags{}

	cmd := &cobra.Command{
		Use:   "compress <path>...",
		Short: "Compress images into a single zip archive",
		Long: "Compress reads the given files and directories (directories are not walked recursively),\n" +
			"re-encodes every image and writes one archive. Non-image files are skipped.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if err := flags.apply(cmd, &cfg.Compress); err != nil {
				return err
			}
			return runCompress(cmd, cfg, flags, args)
		},
	}

	defaults := config.Default().Compress
	cmd.Flags().IntVarP(&flags.quality, "quality", "q", defaults.Quality, "encoder quality, 1-100")
	cmd.Flags().IntVarP(&flags.maxWidth, "max-width", "w", defaults.MaxWidth, "maximum output width in pixels")
	cmd.Flags().StringVarP(&flags.format, "format", "f", defaults.Format, "preferred output format: webp or jpeg")
	cmd.Flags().StringVarP(&flags.output, "output", "o", defaults.OutputDir, "directory the archive is written to")
	cmd.Flags().StringVar(&flags.archiveName, "archive-name", defaults.ArchiveName, "archive file name")
	cmd.Flags().BoolVar(&flags.upload, "upload", false, "also upload the archive to object storage")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "skip the transcode cache")
	return cmd
}

// apply copies explicitly set flags over the loaded config.
func (f *compressFlags) apply(cmd *cobra.Command, cfg *config.CompressConfig) error {
	set := cmd.Flags().Changed
	if set("quality") {
		cfg.Quality = f.quality
	}
	if set("max-width") {
		cfg.MaxWidth = f.maxWidth
	}
	if set("format") {
		cfg.Format = f.format
	}
	if set("output") {
		cfg.OutputDir = f.output
	}
	if set("archive-name") {
		cfg.ArchiveName = f.archiveName
	}

	if cfg.Quality < 1 || cfg.Quality > 100 {
		return fmt.Errorf("--quality must be between 1 and 100, got %d", cfg.Quality)
	}
	if cfg.MaxWidth <= 0 {
		return fmt.Errorf("--max-width must be positive, got %d", cfg.MaxWidth)
	}
	if _, ok := domain.ParseFormat(cfg.Format); !ok {
		return fmt.Errorf("--format must be webp or jpeg, got %q", cfg.Format)
	}
	return nil
}

func runCompress(cmd *cobra.Command, cfg config.Config, flags *compressFlags, paths []string) (err error) {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, appOptions{
		upload:   flags.upload,
		logOut:   cmd.ErrOrStderr(),
		useCache: !flags.noCache && cfg.Cache.Driver != "none",
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	files, err := source.Collect(ctx, paths)
	if err != nil {
		return err
	}

	session := domain.NewSession("", cfg.Compress.EncodeOptions()).Select(files...)
	for _, skipped := range session.Skipped {
		a.logger.Warn().Str("file", skipped.Name).Str("mime_type", skipped.MIMEType).Msg("skipping non-image file")
	}

	preferred, _ := domain.ParseFormat(cfg.Compress.Format)
	bar := newProgressBar(cmd.ErrOrStderr(), len(session.Sources))
	processor := pipeline.NewProcessor(pipeline.Config{
		Preferred: preferred,
		Cache:     a.cache,
		Logger:    a.logger,
		Progress: func(pipeline.Progress) {
			_ = bar.Add(1)
		},
	})
	if processor.Format() != preferred {
		a.logger.Info().
			Str("preferred", string(preferred)).
			Str("format", string(processor.Format())).
			Str("backend", processor.Backend()).
			Msg("preferred format unavailable, falling back")
	}

	runCfg := runner.Config{
		Processor:   processor,
		Emitters:    a.emitters,
		ArchiveName: cfg.Compress.ArchiveName,
		UsageStore:  a.usage,
		Metrics:     a.metrics,
		Logger:      a.logger,
	}
	if a.webhook != nil {
		runCfg.Webhook = a.webhook
		runCfg.WebhookURL = cfg.Webhook.URL
	}

	r, err := runner.New(runCfg)
	if err != nil {
		return err
	}

	report, err := r.Run(ctx, session)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
	return nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("compressing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
	)
}
