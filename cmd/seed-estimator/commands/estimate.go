package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/spf13/cobra"

	"github.com/ironsheep/seed-estimator/internal/estimate"
	"github.com/ironsheep/seed-estimator/internal/imaging"
	"github.com/ironsheep/seed-estimator/internal/upload"
)

// estimateResult is the --json output of the estimate command.
type estimateResult struct {
	Image    string  `json:"image"`
	Backend  string  `json:"backend"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Contours int     `json:"contours"`
	Area     float64 `json:"area"`
	Density  int     `json:"density"`
	Seeds    float64 `json:"seeds"`
}

func estimateCmd(a *app) *cobra.Command {
	var (
		density  int
		backend  string
		preview  string
		asJSON   bool
		outlines int
	)

	cmd := &cobra.Command{
		Use:   "estimate <image>",
		Short: "Measure the land in an image and print the seed amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if backend == "" {
				backend = a.cfg.Backend
			}
			est, err := estimate.New(backend)
			if err != nil {
				return err
			}
			est = est.WithMaxPixels(a.cfg.MaxPixels)

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			m, err := est.Measure(data)
			if errors.Is(err, estimate.ErrTooManyPixels) {
				return fmt.Errorf("%s: %w", upload.MsgTooManyPixels, err)
			}
			if err != nil && !errors.Is(err, estimate.ErrUndecodable) {
				return err
			}
			if err != nil || m.Area <= 0 {
				return errors.New(upload.MsgNoArea)
			}

			if preview != "" {
				if err := writePreview(preview, path, m, outlines); err != nil {
					return err
				}
				a.logger.Debug().Str("path", preview).Msg("preview written")
			}

			seeds := estimate.SeedAmount(m.Area, density)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(estimateResult{
					Image:    path,
					Backend:  est.Name(),
					Width:    m.Width,
					Height:   m.Height,
					Contours: len(m.Contours),
					Area:     m.Area,
					Density:  density,
					Seeds:    seeds,
				})
			}

			msg := fmt.Sprintf(upload.ResultFormat, m.Area, seeds)
			fmt.Fprintln(out, strings.ReplaceAll(msg, "<br>", "\n"))
			return nil
		},
	}

	cmd.Flags().IntVar(&density, "density", 0, "seeds or plants per square meter")
	cmd.Flags().StringVar(&backend, "backend", "", "measuring backend (default from config)")
	cmd.Flags().StringVar(&preview, "preview", "", "write a PNG with the detected outlines to this path")
	cmd.Flags().IntVar(&outlines, "line-width", 2, "outline width in pixels for --preview")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("density")
	return cmd
}

// writePreview outlines the measured contours on the image at src and saves
// the result as a PNG at path.
func writePreview(path, src string, m *estimate.Measurement, lineWidth int) error {
	img, err := imaging.Load(src)
	if err != nil {
		return err
	}
	outlined := imaging.DrawContours(img, m.Contours, lineWidth)
	if err := imgio.Save(path, outlined, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}
