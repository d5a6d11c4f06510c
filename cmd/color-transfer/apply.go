package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/color-transfer/internal/imaging"
	"github.com/ironsheep/color-transfer/internal/transfer"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Recolor an image from a reference photograph",
	RunE:  runApply,
}

func init() {
	applyCmd.Flags().StringP("input", "i", "", "Input image file")
	applyCmd.Flags().StringP("reference", "r", "", "Reference image file")
	applyCmd.Flags().StringP("output", "o", "", "Output file (.png, .jpg or .bmp)")
	applyCmd.Flags().Float32P("intensity", "t", transfer.DefaultIntensity, "Blend factor 0..1")
	applyCmd.Flags().Int("quality", imaging.DefaultJPEGQuality, "JPEG quality 1-100")
	applyCmd.Flags().Bool("preview", false, "Render a quick preview on the GPU path when available")
	applyCmd.MarkFlagRequired("input")
	applyCmd.MarkFlagRequired("reference")
	applyCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	referencePath, _ := cmd.Flags().GetString("reference")
	outputPath, _ := cmd.Flags().GetString("output")
	intensity, _ := cmd.Flags().GetFloat32("intensity")
	quality, _ := cmd.Flags().GetInt("quality")
	preview, _ := cmd.Flags().GetBool("preview")

	if _, err := imaging.EncoderForPath(outputPath, quality); err != nil {
		return err
	}

	ctx := cmd.Context()
	eng, err := newEngine(ctx, cmd)
	if err != nil {
		return err
	}

	loader := imaging.NewFileLoader()
	img, err := loader.Load(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var out *imaging.PixelBuffer
	if preview {
		ref, err := loader.Load(referencePath)
		if err != nil {
			return fmt.Errorf("reading reference: %w", err)
		}
		out, err = eng.Preview(ctx, img, ref, intensity)
		if err != nil {
			return err
		}
	} else {
		out, err = eng.TransferWithReference(ctx, img, referencePath, intensity)
		if err != nil {
			return err
		}
	}

	if err := imaging.Save(out, outputPath, quality); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d\n", outputPath, out.Width, out.Height)
	return nil
}
