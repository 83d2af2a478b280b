package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/gompdf/tablelayout/pkg/api"
)

var pageSizes = map[string][2]float64{
	"a3":     {api.PageSizeA3Width, api.PageSizeA3Height},
	"a4":     {api.PageSizeA4Width, api.PageSizeA4Height},
	"a5":     {api.PageSizeA5Width, api.PageSizeA5Height},
	"letter": {api.PageSizeLetterWidth, api.PageSizeLetterHeight},
	"legal":  {api.PageSizeLegalWidth, api.PageSizeLegalHeight},
}

func main() {
	cmd := &cli.Command{
		Name:  "tablepdf",
		Usage: "Lay out HTML and Markdown tables as paginated PDF",
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "Render the tables of a document",
				ArgsUsage: "[input]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Input HTML or Markdown file or URL",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output PDF file path (default: input with .pdf)",
					},
					&cli.StringFlag{
						Name:  "page-size",
						Usage: "Page size: A3, A4, A5, Letter or Legal",
						Value: "A4",
					},
					&cli.BoolFlag{
						Name:  "landscape",
						Usage: "Use landscape orientation",
					},
					&cli.FloatFlag{
						Name:  "margin",
						Usage: "Page margin in points",
						Value: 36,
					},
					&cli.IntFlag{
						Name:  "columns",
						Usage: "Newspaper columns per page",
						Value: 1,
					},
					&cli.StringFlag{
						Name:  "font",
						Usage: "Base font family",
						Value: "Helvetica",
					},
					&cli.FloatFlag{
						Name:  "font-size",
						Usage: "Base font size in points",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "shape",
						Usage: "Embed the Go fonts and measure text by shaping",
					},
					&cli.StringFlag{
						Name:  "overflow",
						Usage: "Overflow of tables too wide for the page: visible, hidden or wrap",
						Value: "visible",
					},
					&cli.BoolFlag{
						Name:  "no-repeat-headers",
						Usage: "Do not repeat header rows on each page",
					},
					&cli.StringSliceFlag{
						Name:  "css",
						Usage: "Extra stylesheet file, may be repeated",
					},
					&cli.StringSliceFlag{
						Name:  "resource-path",
						Usage: "Directory searched for images and stylesheets",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Enable verbose logging",
					},
				},
				Action: render,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func render(ctx context.Context, cmd *cli.Command) error {
	input := cmd.String("input")
	if input == "" {
		input = cmd.Args().First()
	}
	if input == "" {
		return errors.New("input file is required")
	}

	output := cmd.String("output")
	if output == "" {
		base := input
		if i := strings.LastIndex(base, "/"); strings.Contains(base, "://") && i >= 0 {
			base = base[i+1:]
		}
		output = strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
	}

	options, err := buildOptions(cmd)
	if err != nil {
		return err
	}
	converter := api.NewWithOptions(options)

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		err = converter.ConvertURL(ctx, input, output)
	} else {
		err = converter.ConvertFile(ctx, input, output)
	}
	if err != nil {
		return errors.Wrapf(err, "convert %s", input)
	}

	if cmd.Bool("verbose") {
		fmt.Fprintf(os.Stderr, "Successfully converted %s to %s\n", input, output)
	}
	return nil
}

func buildOptions(cmd *cli.Command) (api.Options, error) {
	options := api.DefaultOptions()

	size, ok := pageSizes[strings.ToLower(cmd.String("page-size"))]
	if !ok {
		return options, errors.Errorf("unknown page size %q", cmd.String("page-size"))
	}
	opts := []api.Option{
		api.WithPageSize(size[0], size[1]),
		api.WithColumns(int(cmd.Int("columns")), options.ColumnGap),
		api.WithFont(cmd.String("font"), cmd.Float("font-size")),
		api.WithEmbeddedFonts(cmd.Bool("shape")),
		api.WithOverflow(cmd.String("overflow")),
		api.WithRepeatHeaders(!cmd.Bool("no-repeat-headers")),
		api.WithDebug(cmd.Bool("verbose")),
		api.WithLogOutput(os.Stderr),
	}
	m := cmd.Float("margin")
	opts = append(opts, api.WithMargins(m, m, m, m))
	if cmd.Bool("landscape") {
		opts = append(opts, api.WithPageOrientation(api.PageOrientationLandscape))
	}
	for _, p := range cmd.StringSlice("resource-path") {
		opts = append(opts, api.WithResourcePath(p))
	}

	var sheets []string
	for _, path := range cmd.StringSlice("css") {
		data, err := os.ReadFile(path)
		if err != nil {
			return options, errors.Wrapf(err, "read stylesheet %s", path)
		}
		sheets = append(sheets, string(data))
	}
	if len(sheets) > 0 {
		opts = append(opts, api.WithStylesheet(strings.Join(sheets, "\n")))
	}

	for _, o := range opts {
		o(&options)
	}
	return options, nil
}
