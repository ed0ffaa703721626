package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reelcraft/pkg/captions"
	"reelcraft/pkg/timeline"
)

var (
	captionsOutput     string
	captionsVideo      string
	captionsPosition   string
	captionsFontSize   int
	captionsIntoTarget string
)

func newCaptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "captions",
		Short: "Convert between SRT subtitles and timeline text layers",
	}
	cmd.AddCommand(newCaptionsImportCmd())
	cmd.AddCommand(newCaptionsExportCmd())
	return cmd
}

func newCaptionsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.srt>",
		Short: "Build a timeline document with one text layer per cue",
		Args:  cobra.ExactArgs(1),
		RunE:  runCaptionsImport,
	}
	cmd.Flags().StringVarP(&captionsOutput, "output", "o", "", "Write the document here (.yaml or .json); default stdout as YAML")
	cmd.Flags().StringVar(&captionsVideo, "video", "", "Start the timeline with this video")
	cmd.Flags().StringVar(&captionsIntoTarget, "into", "", "Append captions to an existing timeline document")
	cmd.Flags().StringVar(&captionsPosition, "position", "", "Caption position (default bottom, 60px up)")
	cmd.Flags().IntVar(&captionsFontSize, "font-size", 0, "Caption font size")
	return cmd
}

func newCaptionsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <timeline>",
		Short: "Write the text layers of a timeline as SRT",
		Args:  cobra.ExactArgs(1),
		RunE:  runCaptionsExport,
	}
	cmd.Flags().StringVarP(&captionsOutput, "output", "o", "", "Write the SRT here; default stdout")
	return cmd
}

func runCaptionsImport(cmd *cobra.Command, args []string) error {
	cues, err := captions.ParseFile(args[0])
	if err != nil {
		return err
	}

	base := timeline.New()
	if captionsIntoTarget != "" {
		if base, err = readTimeline(captionsIntoTarget); err != nil {
			return err
		}
	}
	if captionsVideo != "" {
		base = base.AddVideo(captionsVideo)
	}

	var opts []timeline.LayerOption
	if captionsPosition != "" {
		opts = append(opts, timeline.PositionString(captionsPosition))
	}
	if captionsFontSize > 0 {
		opts = append(opts, timeline.FontSize(captionsFontSize))
	}
	tl := base.AddCaptions(cues, opts...)
	if err := tl.Err(); err != nil {
		return err
	}

	data, err := encodeTimeline(captionsOutput, tl)
	if err != nil {
		return err
	}
	if captionsOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(captionsOutput, data, 0o644); err != nil {
		return fmt.Errorf("write timeline: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d caption layer(s) to %s\n", len(cues), captionsOutput)
	return nil
}

func runCaptionsExport(cmd *cobra.Command, args []string) error {
	tl, err := readTimeline(args[0])
	if err != nil {
		return err
	}
	cues := tl.Captions()
	if len(cues) == 0 {
		return fmt.Errorf("%s has no text layers", args[0])
	}

	var buf bytes.Buffer
	if err := captions.Write(&buf, cues); err != nil {
		return err
	}
	if captionsOutput == "" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(captionsOutput, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write captions: %w", err)
	}
	return nil
}
