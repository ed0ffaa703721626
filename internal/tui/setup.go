package tui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reelcraft/internal/config"
	"reelcraft/internal/engine"
)

// SetupResult holds the values picked in the encoding carousel.
type SetupResult struct {
	Cancelled    bool
	VideoCodec   string
	Width        int
	Height       int
	FPS          float64
	CRF          int
	Preset       string
	AudioCodec   string
	AudioBitrate int
}

// Apply copies the selection into cfg. A cancelled result changes nothing.
func (r SetupResult) Apply(cfg *config.Config) {
	if r.Cancelled {
		return
	}
	cfg.Video.Codec = r.VideoCodec
	cfg.Video.Width, cfg.Video.Height = r.Width, r.Height
	cfg.Video.FPS = r.FPS
	cfg.Video.CRF = r.CRF
	cfg.Video.Preset = r.Preset
	cfg.Audio.ACodec = r.AudioCodec
	cfg.Audio.BitrateKbps = r.AudioBitrate
}

type option struct {
	name string
	desc string
}

var codecHints = map[string]string{
	"h264_videotoolbox": "Apple VideoToolbox",
	"hevc_videotoolbox": "Apple VideoToolbox",
	"h264_nvenc":        "NVIDIA NVENC",
	"hevc_nvenc":        "NVIDIA NVENC",
	"av1_nvenc":         "NVIDIA NVENC",
	"h264_qsv":          "Intel Quick Sync",
	"hevc_qsv":          "Intel Quick Sync",
	"h264_vaapi":        "VA-API",
	"libx264":           "software",
	"libx265":           "software",
	"libvpx-vp9":        "software",
	"libsvtav1":         "software (SVT)",
	"libaom-av1":        "software (reference)",
}

var resolutionInfo = []option{
	{"1280x720", "HD, smaller files"},
	{"1920x1080", "Full HD, the usual choice"},
	{"1080x1920", "Vertical, for phone-first platforms"},
	{"3840x2160", "4K UHD, large files"},
}

var fpsInfo = []option{
	{"24", "Film"},
	{"25", "PAL broadcast"},
	{"30", "Web and broadcast video"},
	{"60", "High motion"},
}

var crfInfo = []option{
	{"18", "Near-lossless, large files"},
	{"20", "High quality"},
	{"23", "libx264 default"},
	{"28", "Small files, visible at motion"},
}

var presetInfo = []option{
	{"ultrafast", "Previews and drafts"},
	{"fast", "Quick encode, slightly larger files"},
	{"medium", "Balanced"},
	{"slow", "Better compression, much slower"},
}

var audioCodecInfo = []option{
	{"aac", "Plays everywhere"},
	{"libopus", "Better at low bitrates; pair with mkv or webm"},
	{"libmp3lame", "Legacy players"},
}

var audioBitrateInfo = []option{
	{"128", "Speech and casual content"},
	{"192", "Music"},
	{"256", "High detail"},
	{"320", "Ceiling for lossy audio"},
}

const (
	rowCodec = iota
	rowResolution
	rowFPS
	rowCRF
	rowPreset
	rowAudioCodec
	rowAudioBitrate
)

type encodersMsg []engine.EncoderSupport

type carouselRow struct {
	label   string
	options []string
	current int
	info    []option
}

func (r carouselRow) value() string {
	return r.options[r.current]
}

type setupModel struct {
	rows      []carouselRow
	focused   int
	done      bool
	cancelled bool
	probing   bool
	encoders  []engine.EncoderSupport
	cfg       config.Config
	probe     func(context.Context) []engine.EncoderSupport
	spinner   spinner.Model
}

func newSetupModel(cfg config.Config, probe func(context.Context) []engine.EncoderSupport) setupModel {
	placeholder := []string{"..."}
	labels := []string{"Video codec", "Resolution", "FPS", "CRF", "Preset", "Audio codec", "Audio kbps"}
	rows := make([]carouselRow, len(labels))
	for i, l := range labels {
		rows[i] = carouselRow{label: l, options: placeholder}
	}
	return setupModel{
		rows:    rows,
		cfg:     cfg,
		probe:   probe,
		probing: true,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m setupModel) Init() tea.Cmd {
	probe := m.probe
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return encodersMsg(probe(ctx))
	})
}

func names(opts []option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.name
	}
	return out
}

func populateRows(encoders []engine.EncoderSupport, cfg config.Config) []carouselRow {
	var codecs []string
	for _, e := range encoders {
		if e.Available {
			codecs = append(codecs, e.Codec)
		}
	}
	if len(codecs) == 0 {
		codecs = []string{cfg.Video.Codec}
	}
	var codecInfo []option
	for _, c := range codecs {
		codecInfo = append(codecInfo, option{c, codecHints[c]})
	}

	row := func(label string, info []option, current string, fallback int) carouselRow {
		opts := names(info)
		return carouselRow{label: label, options: opts, info: info, current: findIdx(opts, current, fallback)}
	}
	return []carouselRow{
		row("Video codec", codecInfo, cfg.Video.Codec, 0),
		row("Resolution", resolutionInfo, fmt.Sprintf("%dx%d", cfg.Video.Width, cfg.Video.Height), 1),
		row("FPS", fpsInfo, strconv.FormatFloat(cfg.Video.FPS, 'f', -1, 64), 2),
		row("CRF", crfInfo, strconv.Itoa(cfg.Video.CRF), 2),
		row("Preset", presetInfo, cfg.Video.Preset, 2),
		row("Audio codec", audioCodecInfo, cfg.Audio.ACodec, 0),
		row("Audio kbps", audioBitrateInfo, strconv.Itoa(cfg.Audio.BitrateKbps), 1),
	}
}

func findIdx(options []string, value string, defaultIdx int) int {
	for i, o := range options {
		if o == value {
			return i
		}
	}
	return defaultIdx
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case encodersMsg:
		m.probing = false
		m.encoders = msg
		m.rows = populateRows(msg, m.cfg)
		return m, nil

	case spinner.TickMsg:
		if !m.probing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			return m, tea.Quit
		}
		if m.probing {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.focused > 0 {
				m.focused--
			}
		case "down", "j":
			if m.focused < len(m.rows)-1 {
				m.focused++
			}
		case "left", "h":
			row := &m.rows[m.focused]
			row.current = (row.current - 1 + len(row.options)) % len(row.options)
		case "right", "l":
			row := &m.rows[m.focused]
			row.current = (row.current + 1) % len(row.options)
		case "enter":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m setupModel) View() string {
	if m.cancelled {
		return FaintStyle.Render("  cancelled") + "\n"
	}

	var sb strings.Builder
	sb.WriteString("\n")
	if m.done {
		for _, row := range m.rows {
			fmt.Fprintf(&sb, "%s %s\n", FaintStyle.Render(fmt.Sprintf("  %-12s", row.label)), row.value())
		}
		return sb.String()
	}

	focused := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	for i, row := range m.rows {
		prefix, label := "  ", FaintStyle.Render(fmt.Sprintf("%-12s", row.label))
		value := fmt.Sprintf("%-20s", row.value())
		switch {
		case m.probing:
			value = FaintStyle.Render(value)
		case i == m.focused:
			prefix, label = "▸ ", focused.Render(fmt.Sprintf("%-12s", row.label))
		}
		fmt.Fprintf(&sb, "%s%s ←  %s→\n", prefix, label, value)
	}

	panel := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).BorderForeground(lipgloss.Color("8"))
	sb.WriteString("\n")
	if m.probing {
		sb.WriteString(panel.Render(m.spinner.View() + " Probing encoders..."))
		sb.WriteString("\n")
		return sb.String()
	}
	sb.WriteString(panel.Render(m.helpPanel()))
	sb.WriteString("\n")
	sb.WriteString(FaintStyle.Render("  [↑↓] Navigate  [←→] Change  [Enter] Save  [Esc] Cancel"))
	sb.WriteString("\n")
	return sb.String()
}

func (m setupModel) helpPanel() string {
	if m.focused == rowCodec {
		return m.codecPanel()
	}
	row := m.rows[m.focused]
	bold := lipgloss.NewStyle().Bold(true)
	var sb strings.Builder
	for _, info := range row.info {
		prefix, name := "  ", FaintStyle.Render(fmt.Sprintf("%-10s", info.name))
		if info.name == row.value() {
			prefix, name = "▸ ", bold.Render(fmt.Sprintf("%-10s", info.name))
		}
		fmt.Fprintf(&sb, "%s%s  %s\n", prefix, name, info.desc)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m setupModel) codecPanel() string {
	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Encoders found by family:"))
	sb.WriteString("\n\n")
	for _, family := range engine.CodecFamilies {
		var available []string
		for _, e := range m.encoders {
			if e.Family == family.Name && e.Available {
				available = append(available, e.Codec)
			}
		}
		label := fmt.Sprintf("  %-14s", family.Name)
		if len(available) == 0 {
			sb.WriteString(label + FaintStyle.Render("(none)") + "\n")
			continue
		}
		for i, codec := range available {
			if i > 0 {
				label = fmt.Sprintf("  %-14s", "")
			}
			fmt.Fprintf(&sb, "%s%s  %s\n", label, codec, FaintStyle.Render("("+codecHints[codec]+")"))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m setupModel) result() SetupResult {
	if m.cancelled || m.probing {
		return SetupResult{Cancelled: true}
	}
	w, h := parseResolution(m.rows[rowResolution].value())
	fps, _ := strconv.ParseFloat(m.rows[rowFPS].value(), 64)
	crf, _ := strconv.Atoi(m.rows[rowCRF].value())
	abr, _ := strconv.Atoi(m.rows[rowAudioBitrate].value())
	return SetupResult{
		VideoCodec:   m.rows[rowCodec].value(),
		Width:        w,
		Height:       h,
		FPS:          fps,
		CRF:          crf,
		Preset:       m.rows[rowPreset].value(),
		AudioCodec:   m.rows[rowAudioCodec].value(),
		AudioBitrate: abr,
	}
}

func parseResolution(s string) (int, int) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return 1920, 1080
	}
	width, _ := strconv.Atoi(w)
	height, _ := strconv.Atoi(h)
	if width <= 0 || height <= 0 {
		return 1920, 1080
	}
	return width, height
}

// RunSetup probes encoders inside the carousel and returns the selection.
// Rows start from cfg and stay grayed out until the probe finishes.
func RunSetup(w io.Writer, cfg config.Config, runner engine.Runner) (SetupResult, error) {
	probe := func(ctx context.Context) []engine.EncoderSupport {
		return engine.ProbeEncoders(ctx, runner, cfg.Engine.FFmpeg)
	}
	p := tea.NewProgram(newSetupModel(cfg, probe), tea.WithOutput(w))
	final, err := p.Run()
	if err != nil {
		return SetupResult{}, err
	}
	return final.(setupModel).result(), nil
}
