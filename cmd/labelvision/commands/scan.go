package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/ironsheep/labelvision/internal/pipeline"
)

var scanFormat string

var scanCmd = &cobra.Command{
	Use:   "scan <image> [image...]",
	Short: "Scan one or more photos of a product label",
	Long: `Scan reads the given images and prints the extracted label fields.

Several images are treated as photos of the same product (for example front
and back) and merged into one result.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "text", "output format: text or json")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanFormat != "text" && scanFormat != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", scanFormat)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	imgs := make([]pipeline.Image, 0, len(args))
	for _, path := range args {
		img, err := pipeline.LoadImage(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		imgs = append(imgs, img)
	}

	// The spinner shares stderr with the logs, so it stays off in verbose mode.
	var spin *spinner.Spinner
	if scanFormat == "text" && !verbose {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Suffix = fmt.Sprintf(" Reading %d image(s)...", len(imgs))
		spin.Start()
	}
	res, err := a.pipeline.ProcessImages(ctx, imgs)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	out := cmd.OutOrStdout()
	if scanFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	writeText(out, res)
	return nil
}
