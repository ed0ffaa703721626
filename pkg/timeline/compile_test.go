package timeline

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"reelcraft/internal/effects"
	"reelcraft/internal/filtergraph"
)

var videoOutput = []string{"-c:v", "libx264", "-preset", "medium", "-crf", "23", "-pix_fmt", "yuv420p"}

func args(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestCompileScaledVideo(t *testing.T) {
	cmd, err := New().AddVideo("in.mp4").Scale(1280, 720).Command("out.mp4")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := args(
		[]string{"-hide_banner", "-y", "-i", "in.mp4"},
		[]string{"-filter_complex", "[0:v]scale=1280:720[vout]"},
		[]string{"-map", "[vout]", "-map", "0:a?"},
		videoOutput,
		[]string{"-c:a", "aac", "-b:a", "192k", "-movflags", "+faststart", "out.mp4"},
	)
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", cmd.Args, want)
	}
	if cmd.Executable != "ffmpeg" {
		t.Errorf("unexpected executable %q", cmd.Executable)
	}

	line, err := New().AddVideo("in.mp4").Scale(1280, 720).Compile("out.mp4")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.HasPrefix(line, "ffmpeg ") || !strings.HasSuffix(line, " out.mp4") {
		t.Errorf("unexpected command line %q", line)
	}
}

func TestCompileTrim(t *testing.T) {
	cmd, err := New().AddVideo("in.mp4", For(90)).Trim(10, 60).Command("out.mkv")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := args(
		[]string{"-hide_banner", "-y", "-t", "90", "-i", "in.mp4"},
		[]string{"-map", "0:v", "-map", "0:a?"},
		[]string{"-ss", "10", "-t", "50"},
		videoOutput,
		[]string{"-c:a", "aac", "-b:a", "192k", "out.mkv"},
	)
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", cmd.Args, want)
	}
}

func TestCompileEmptyTimeline(t *testing.T) {
	cmd, err := New().Command("out.mp4")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := args(
		[]string{"-hide_banner", "-y"},
		[]string{"-filter_complex", "color=c=black:s=1920x1080:r=30:d=5[base]"},
		[]string{"-map", "[base]"},
		videoOutput,
		[]string{"-movflags", "+faststart", "out.mp4"},
	)
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", cmd.Args, want)
	}
}

func TestCompileAudioOnly(t *testing.T) {
	cmd, err := New().AddAudio("song.mp3").Command("out.m4a")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := []string{"-hide_banner", "-y", "-i", "song.mp3", "-map", "0:a",
		"-c:a", "aac", "-b:a", "192k", "-movflags", "+faststart", "out.m4a"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", cmd.Args, want)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	tl := New().
		AddVideo("a.mp4", For(8), WithEffect("brightness", Params{"value": 0.1, "contrast": 1.2})).
		AddImage("logo.png", At(1), For(3), PositionString("top-right"), Opacity(0.5)).
		AddText("Title", At(0.5), For(2), Fade(0.25, 0.25)).
		AddAudio("music.mp3", At(2), Volume(0.4)).
		AddFilter("vignette", map[string]any{"angle": 0.5})

	first, err := tl.Compile("out.mp4")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := tl.Compile("out.mp4")
		if err != nil {
			t.Fatalf("Compile #%d: %v", i, err)
		}
		if again != first {
			t.Fatalf("non-deterministic output:\n%s\n%s", first, again)
		}
	}
}

func TestInputOrdinals(t *testing.T) {
	tl := New().
		AddAudio("music.mp3").
		AddImage("logo.png", For(3)).
		AddVideo("clip.mp4", At(1), For(4)).
		AddGreenScreenWithVideoBackground("fg.mp4", "bg.mp4", GreenScreen{}, At(2), For(2))

	cmd, err := tl.Command("out.mp4")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	for i, want := range []string{"logo.png", "clip.mp4", "fg.mp4", "bg.mp4", "music.mp3"} {
		got, ok := cmd.Input(i)
		if !ok || got != want {
			t.Errorf("input %d = %q, want %q", i, got, want)
		}
	}
	if _, ok := cmd.Input(5); ok {
		t.Errorf("expected exactly 5 inputs")
	}

	graph, _ := cmd.Value("-filter_complex")
	for _, fragment := range []string{
		"[base][0:v]overlay=",
		"[1:v]setpts=PTS-STARTPTS+1/TB[l2]",
		"[2:v]chromakey=color=0x00FF00:similarity=0.1:blend=0.1,setpts=PTS-STARTPTS+2/TB[k3]",
		"[3:v]scale=1920:1080:force_original_aspect_ratio=increase",
		"[bg3][k3]overlay=",
	} {
		if !strings.Contains(graph, fragment) {
			t.Errorf("graph missing %q:\n%s", fragment, graph)
		}
	}
	if v, _ := cmd.Value("-loop"); v != "1" {
		t.Errorf("expected image to loop, got %q", v)
	}
}

func TestConcatMonotonicInputs(t *testing.T) {
	tl := New().AddVideo("a.mp4", For(10)).Concat(New().AddVideo("b.mp4", For(5)))
	cmd, err := tl.Command("out.mp4")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if a, _ := cmd.Input(0); a != "a.mp4" {
		t.Errorf("input 0 = %q", a)
	}
	if b, _ := cmd.Input(1); b != "b.mp4" {
		t.Errorf("input 1 = %q", b)
	}
	graph, _ := cmd.Value("-filter_complex")
	if !strings.Contains(graph, "color=c=black:s=1920x1080:r=30:d=15[base]") {
		t.Errorf("expected a canvas spanning both clips:\n%s", graph)
	}
	if !strings.Contains(graph, "enable='between(t\\,10\\,15)'") {
		t.Errorf("expected second clip enabled from 10s:\n%s", graph)
	}
}

func TestCompileGreenScreen(t *testing.T) {
	gs := GreenScreen{ChromaKey: "#00FF00", BackgroundScale: "fill"}
	cmd, err := New().AddGreenScreenWithImageBackground("fg.mp4", "bg.png", gs, For(6)).Command("out.mp4")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	line := strings.Join(cmd.Args, " ")
	for _, fragment := range []string{"-i fg.mp4", "-loop 1 -t 6 -i bg.png"} {
		if !strings.Contains(line, fragment) {
			t.Errorf("missing %q in %s", fragment, line)
		}
	}

	graph, _ := cmd.Value("-filter_complex")
	chains := strings.Split(graph, ";")
	if len(chains) != 3 {
		t.Fatalf("expected key, scale and overlay chains, got %d: %s", len(chains), graph)
	}
	if chains[0] != "[0:v]chromakey=color=0x00FF00:similarity=0.1:blend=0.1[k0]" {
		t.Errorf("unexpected key chain %q", chains[0])
	}
	if chains[1] != "[1:v]scale=1920:1080:force_original_aspect_ratio=increase,crop=1920:1080:(iw-ow)/2:(ih-oh)/2[bg0]" {
		t.Errorf("unexpected fill chain %q", chains[1])
	}
	if !strings.HasPrefix(chains[2], "[bg0][k0]overlay=") || !strings.HasSuffix(chains[2], "[c0]") {
		t.Errorf("unexpected overlay chain %q", chains[2])
	}
	if m, _ := cmd.Value("-map"); m != "[c0]" {
		t.Errorf("expected composite to be mapped, got %q", m)
	}

	seen := map[string]bool{}
	for _, mode := range []string{"fit", "fill", "stretch", "crop"} {
		gs.BackgroundScale = mode
		cmd, err := New().AddGreenScreenWithImageBackground("fg.mp4", "bg.png", gs).Command("out.mp4")
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		graph, _ := cmd.Value("-filter_complex")
		scale := strings.Split(graph, ";")[1]
		if seen[scale] {
			t.Errorf("scale mode %s repeats another formula: %s", mode, scale)
		}
		seen[scale] = true
	}
}

func TestCompileTextLayer(t *testing.T) {
	graph := filterGraph(t, New().
		AddVideo("a.mp4").
		AddText("it's 5:00", At(1), For(3), FontSize(64), FontColor("#FFCC00"), Transform(TransformUpper)))

	prefix := "[0:v]drawtext=text='IT\\'\\''S 5\\:00':fontsize=64:fontcolor=0xFFCC00:bordercolor=black:borderw=2:"
	if !strings.HasPrefix(graph, prefix) {
		t.Errorf("unexpected drawtext:\n%s\nwant prefix %s", graph, prefix)
	}
	if !strings.Contains(graph, ":enable='between(t\\,1\\,4)'[vout]") {
		t.Errorf("expected timed enable:\n%s", graph)
	}
}

func TestAlphaExpression(t *testing.T) {
	got := alphaExpression(1, 5, 1, 1)
	want := "if(lt(t,1),0,if(lt(t,2),(t-1)/1,if(lt(t,4),1,if(lt(t,5),(5-t)/1,0))))"
	if got != want {
		t.Errorf("alphaExpression = %s, want %s", got, want)
	}
	if got := alphaExpression(0, 2, 0, 0); got != "if(lt(t,0),0,if(lt(t,2),1,0))" {
		t.Errorf("no-fade expression = %s", got)
	}
	if got := alphaExpression(3, 3, 1, 1); got != "0" {
		t.Errorf("empty window = %s", got)
	}
}

func TestCompileAudioMix(t *testing.T) {
	cmd, err := New().
		AddVideo("a.mp4", For(10)).
		AddAudio("music.mp3", At(2), Volume(0.5), Fade(1, 2), For(6)).
		Command("out.mp4")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	graph, _ := cmd.Value("-filter_complex")
	want := "[1:a]volume=0.5,afade=t=in:st=0:d=1,afade=t=out:st=4:d=2,adelay=delays=2000:all=1[a1];" +
		"[0:a][a1]amix=inputs=2:duration=longest:normalize=0[aout]"
	if graph != want {
		t.Errorf("unexpected audio graph:\n got %s\nwant %s", graph, want)
	}
	if !reflect.DeepEqual(cmd.Args[12:16], []string{"-map", "0:v", "-map", "[aout]"}) {
		t.Errorf("unexpected maps: %q", cmd.Args)
	}
}

func TestCompileMutedVideoDropsAudio(t *testing.T) {
	cmd, err := New().AddVideo("a.mp4", Mute()).Command("out.webm")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if strings.Contains(strings.Join(cmd.Args, " "), "-c:a") {
		t.Errorf("muted video should not carry audio options: %q", cmd.Args)
	}
}

func TestCompileUnknownEffect(t *testing.T) {
	_, err := New().AddVideo("a.mp4").AddFilter("nope", nil).Command("out.mp4")
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if cerr.Effect != "nope" || cerr.Layer != 1 || cerr.Kind != KindFilter {
		t.Errorf("unexpected error details: %+v", cerr)
	}
	if !errors.Is(err, effects.ErrUnknownEffect) {
		t.Errorf("expected ErrUnknownEffect in chain, got %v", err)
	}
}

func TestCompileEffectOnMissingStream(t *testing.T) {
	_, err := New().AddImage("a.png", WithEffect("volume", Params{"gain": 2})).Command("out.mp4")
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CompileError, got %v", err)
	}

	_, err = New().AddText("x", TransitionIn(Transition{Type: TransitionZoom, Duration: 1})).Command("out.mp4")
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CompileError for zoom on text, got %v", err)
	}
}

func TestCompileEmptyOutput(t *testing.T) {
	var cerr *CompileError
	if _, err := New().Command(" "); !errors.As(err, &cerr) {
		t.Fatalf("expected CompileError, got %v", err)
	}
}

func TestCommandWithCustomRegistry(t *testing.T) {
	registry := effects.Default().With(effects.Effect{
		Name:   "posterize",
		Stream: effects.Video,
		Build: func(effects.Params) ([]filtergraph.Filter, error) {
			return []filtergraph.Filter{filtergraph.New("elbg", filtergraph.Int("codebook_length", 8))}, nil
		},
	})

	tl := New().AddVideo("a.mp4").AddFilter("posterize", nil)
	cmd, err := tl.CommandWith("out.mp4", registry)
	if err != nil {
		t.Fatalf("CommandWith: %v", err)
	}
	if graph, _ := cmd.Value("-filter_complex"); graph != "[0:v]elbg=codebook_length=8[vout]" {
		t.Errorf("unexpected graph %q", graph)
	}
	if _, err := tl.Command("out.mp4"); err == nil {
		t.Errorf("default registry should not know posterize")
	}
}

func TestGlobalTransformsRunLast(t *testing.T) {
	graph := filterGraph(t, New().
		AddVideo("a.mp4").
		AddFilter("grayscale", nil).
		Crop(Rect{Width: 1600, Height: 900, X: 10, Y: 20}).
		SetAspectRatio("1:1").
		Scale(720, 0))

	want := "[0:v]hue=s=0,crop=1600:900:10:20,crop=900:900:(iw-ow)/2:(ih-oh)/2,scale=720:-2[vout]"
	if graph != want {
		t.Errorf("unexpected graph:\n got %s\nwant %s", graph, want)
	}
}

func TestHWAccelAndBitrate(t *testing.T) {
	cmd, err := New(func(o *GlobalOptions) {
		o.HWAccel = "cuda"
		o.VideoBitrate = "4M"
		o.FrameRate = 25
	}).AddVideo("a.mp4", Mute()).Command("out.mkv")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := []string{"-hide_banner", "-y", "-hwaccel", "cuda", "-i", "a.mp4", "-map", "0:v",
		"-c:v", "libx264", "-preset", "medium", "-b:v", "4M", "-pix_fmt", "yuv420p", "-r", "25", "out.mkv"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", cmd.Args, want)
	}
}
