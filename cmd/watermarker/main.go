// Package main provides the CLI entry point for watermarker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/watermarker/pkg/adapters/fontresolver"
	"github.com/user/watermarker/pkg/adapters/ggrenderer"
	"github.com/user/watermarker/pkg/adapters/logger"
	"github.com/user/watermarker/pkg/adapters/osfilesystem"
	"github.com/user/watermarker/pkg/config"
	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
	"github.com/user/watermarker/pkg/stages/geometry"
	"github.com/user/watermarker/pkg/summarizer"
	"github.com/user/watermarker/pkg/watermarker"
)

var version = "dev"

// Flag categories
const (
	catOutput    = "Output"
	catWatermark = "Watermark"
	catCanvas    = "Canvas"
	catFonts     = "Fonts"
	catDebug     = "Debug"
	catLogging   = "Logging"
)

func main() {
	app := &cli.App{
		Name:    "watermarker",
		Usage:   l10n.T("Stamp text watermarks onto images"),
		Version: version,
		Description: l10n.T("watermarker draws one line of styled, rotated text at any of nine " +
			"anchor positions and saves the result in the format named by the output extension."),
		Commands: []*cli.Command{
			saveCommand(),
			previewCommand(),
			anchorsCommand(),
			fontsCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

// renderFlags are shared by save and preview.
func renderFlags() []cli.Flag {
	return []cli.Flag{
		// Watermark
		&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: l10n.T("Watermark text"), Category: l10n.T(catWatermark)},
		&cli.StringFlag{Name: "font", Aliases: []string{"f"}, Usage: l10n.T("Font family (default: Arial)"), Category: l10n.T(catWatermark)},
		&cli.IntFlag{Name: "size", Aliases: []string{"s"}, Usage: l10n.T("Font size in points (0-500, default: 10)"), Category: l10n.T(catWatermark)},
		&cli.StringFlag{Name: "color", Aliases: []string{"c"}, Usage: l10n.T("Text color (#rrggbb, #rgb or r,g,b)"), Category: l10n.T(catWatermark)},
		&cli.IntFlag{Name: "angle", Aliases: []string{"a"}, Usage: l10n.T("Counter-clockwise rotation in degrees"), Category: l10n.T(catWatermark)},
		&cli.StringSliceFlag{Name: "anchor", Aliases: []string{"A"}, Usage: l10n.T("Anchor to stamp (repeatable, see 'anchors')"), Category: l10n.T(catWatermark)},
		&cli.BoolFlag{Name: "all-anchors", Usage: l10n.T("Stamp all nine anchors"), Category: l10n.T(catWatermark)},

		// Canvas
		&cli.IntFlag{Name: "width", Usage: l10n.T("Canvas width (default: 700)"), Category: l10n.T(catCanvas)},
		&cli.IntFlag{Name: "height", Usage: l10n.T("Canvas height (default: 800)"), Category: l10n.T(catCanvas)},
		&cli.BoolFlag{Name: "preserve-resolution", Usage: l10n.T("Keep the input size instead of resizing to the canvas"), Category: l10n.T(catCanvas)},
		&cli.StringFlag{Name: "resample", Usage: l10n.T("Resize filter (lanczos, catmullrom)"), Category: l10n.T(catCanvas)},
		&cli.StringFlag{Name: "background", Usage: l10n.T("Color behind transparent input pixels"), Category: l10n.T(catCanvas)},

		// Fonts
		&cli.BoolFlag{Name: "strict-fonts", Usage: l10n.T("Fail when the font family cannot be found"), Category: l10n.T(catFonts)},
		&cli.StringSliceFlag{Name: "font-dir", Usage: l10n.T("Additional font directory (repeatable)"), Category: l10n.T(catFonts)},

		// Debug
		&cli.StringFlag{Name: "config", Usage: l10n.T("YAML configuration file"), Category: l10n.T(catDebug)},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Enable debug output"), Category: l10n.T(catDebug)},
		&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T(catDebug)},

		// Logging
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(catLogging)},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(catLogging)},
	}
}

func saveCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: l10n.T("Output image path; the extension selects the format (required)"), Category: l10n.T(catOutput)},
		&cli.IntFlag{Name: "jpeg-quality", Usage: l10n.T("JPEG quality (1-100, default: 95)"), Category: l10n.T(catOutput)},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Output execution summary to file (Markdown format)"), Category: l10n.T(catOutput)},
	}, renderFlags()...)

	return &cli.Command{
		Name:      "save",
		Usage:     l10n.T("Watermark an image and save it"),
		ArgsUsage: "<input>",
		Flags:     flags,
		Action:    runSave,
	}
}

func previewCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: l10n.T("Preview PNG path (required)"), Category: l10n.T(catOutput)},
	}, renderFlags()...)

	return &cli.Command{
		Name:      "preview",
		Usage:     l10n.T("Render a watermark preview as PNG"),
		ArgsUsage: "<input>",
		Flags:     flags,
		Action:    runPreview,
	}
}

func anchorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "anchors",
		Usage: l10n.T("List anchor names and positions"),
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Value: pipeline.DefaultCanvas.Width, Usage: l10n.T("Canvas width (default: 700)")},
			&cli.IntFlag{Name: "height", Value: pipeline.DefaultCanvas.Height, Usage: l10n.T("Canvas height (default: 800)")},
		},
		Action: func(c *cli.Context) error {
			canvas := pipeline.Dimension{Width: c.Int("width"), Height: c.Int("height")}
			result, err := geometry.NewStage().Execute(c.Context, pipeline.GeometryInput{Canvas: canvas})
			if err != nil {
				return err
			}
			for _, p := range result.Positions {
				align := l10n.T("top-left")
				if p.Centered {
					align = l10n.T("centered")
				}
				fmt.Fprintf(c.App.Writer, "%-14s %-16s (%d, %d) %s\n",
					p.Anchor.String(), p.Anchor.Label(), p.Point.X, p.Point.Y, align)
			}
			return nil
		},
	}
}

func fontsCommand() *cli.Command {
	return &cli.Command{
		Name:  "fonts",
		Usage: l10n.T("List font families that can be resolved"),
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "font-dir", Usage: l10n.T("Additional font directory (repeatable)")},
			&cli.BoolFlag{Name: "no-system", Usage: l10n.T("Skip the platform font directories")},
		},
		Action: func(c *cli.Context) error {
			resolver := fontresolver.New(fontresolver.Options{
				Dirs: fontresolver.ResolveFontDirs(c.StringSlice("font-dir"), !c.Bool("no-system")),
			})
			fmt.Fprintln(c.App.Writer, l10n.F("%s (built in)", pipeline.DefaultFamily))
			for _, family := range resolver.Families() {
				fmt.Fprintln(c.App.Writer, family)
			}
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, l10n.F("watermarker version %s", version))
			return nil
		},
	}
}

func runSave(c *cli.Context) error {
	input, err := inputArg(c)
	if err != nil {
		return err
	}
	log := newLogger(c)

	cfg, summaryPath, err := buildConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	result, err := watermarker.Save(ctx, input, c.String("output"), cfg, watermarker.WithLogger(log))
	if err != nil {
		return err
	}

	if summaryPath != "" {
		writer := summarizer.NewWriter(
			summarizer.NewMarkdownFormatter(
				summarizer.WithTranslator(func(s string) string { return l10n.T(s) }),
				summarizer.WithVersion(version),
			),
			osfilesystem.New(),
		)
		if err := writer.Write(summaryPath, summarizer.FromRunResult(result)); err != nil {
			log.Warn(l10n.F("Failed to write summary: %s", err))
		} else {
			log.Info(l10n.F("Summary saved to %s", summaryPath))
		}
	}

	return nil
}

func runPreview(c *cli.Context) error {
	input, err := inputArg(c)
	if err != nil {
		return err
	}
	output := c.String("output")
	if filepath.Ext(output) == "" {
		output += ".png"
	}
	log := newLogger(c)

	cfg, _, err := buildConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	result, err := watermarker.Preview(ctx, input, cfg, watermarker.WithLogger(log))
	if err != nil {
		return err
	}

	data, err := ggrenderer.New().EncodeImage(result.Image, ports.FormatPNG, 0)
	if err != nil {
		return &pipeline.EncodeError{Path: output, Err: err}
	}
	if err := osfilesystem.New().WriteFileAtomic(output, data); err != nil {
		return &pipeline.EncodeError{Path: output, Err: err}
	}

	log.Info(l10n.F("Preview saved to %s", output))
	return nil
}

func inputArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("%s", l10n.T("Input image argument is required"))
	}
	return c.Args().First(), nil
}

func newLogger(c *cli.Context) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
}

// signalContext cancels the returned context on SIGINT or SIGTERM.
func signalContext(parent context.Context, log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn(l10n.T("Interrupted, shutting down..."))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// buildConfig layers CLI flags over the YAML file (or the defaults).
func buildConfig(c *cli.Context) (watermarker.Config, string, error) {
	fileCfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return watermarker.Config{}, "", fmt.Errorf("load config: %w", err)
		}
		fileCfg = loaded
	}
	if fileCfg.Workers <= 0 {
		fileCfg.Workers = runtime.NumCPU()
	}

	builder, err := fileCfg.Builder()
	if err != nil {
		return watermarker.Config{}, "", err
	}

	// Watermark
	if c.IsSet("text") {
		builder.WithText(c.String("text"))
	}
	if c.IsSet("font") {
		builder.WithFontFamily(c.String("font"))
	}
	if c.IsSet("size") {
		builder.WithFontSize(c.Int("size"))
	}
	if c.IsSet("color") {
		rgb, err := config.ParseColor(c.String("color"))
		if err != nil {
			return watermarker.Config{}, "", err
		}
		builder.WithColor(rgb)
	}
	if c.IsSet("angle") {
		builder.WithRotation(c.Int("angle"))
	}
	if c.Bool("all-anchors") {
		builder.WithAllAnchors()
	} else if c.IsSet("anchor") {
		anchors, err := pipeline.ParseAnchorSet(c.StringSlice("anchor"))
		if err != nil {
			return watermarker.Config{}, "", err
		}
		builder.WithAnchors(anchors.Sorted()...)
	}

	// Canvas
	current := builder.Build()
	if c.IsSet("width") || c.IsSet("height") {
		w, h := current.CanvasWidth, current.CanvasHeight
		if c.IsSet("width") {
			w = c.Int("width")
		}
		if c.IsSet("height") {
			h = c.Int("height")
		}
		builder.WithCanvas(w, h)
	}
	if c.IsSet("preserve-resolution") {
		builder.WithPreserveResolution(c.Bool("preserve-resolution"))
	}
	if c.IsSet("resample") {
		builder.WithResample(c.String("resample"))
	}
	if c.IsSet("background") {
		rgb, err := config.ParseColor(c.String("background"))
		if err != nil {
			return watermarker.Config{}, "", fmt.Errorf("background: %w", err)
		}
		builder.WithBackground(rgb)
	}

	// Fonts
	if c.IsSet("strict-fonts") {
		builder.WithStrictFonts(c.Bool("strict-fonts"))
	}
	if c.IsSet("font-dir") {
		builder.WithFontDirs(c.StringSlice("font-dir")...)
	}

	// Encoding
	if c.IsSet("jpeg-quality") {
		builder.WithJPEGQuality(c.Int("jpeg-quality"))
	}

	// Debug
	if c.IsSet("debug") || c.IsSet("debug-dir") {
		builder.WithDebug(c.Bool("debug") || current.Debug, c.String("debug-dir"))
	}

	summary := fileCfg.Summary
	if c.IsSet("summary") {
		summary = c.String("summary")
	}

	return builder.Build(), summary, nil
}
