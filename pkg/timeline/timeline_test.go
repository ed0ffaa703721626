package timeline

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestBuilderDoesNotMutateReceiver(t *testing.T) {
	base := New().AddVideo("a.mp4")
	withText := base.AddText("hello")
	scaled := withText.Scale(1280, 720)

	if base.Len() != 1 {
		t.Fatalf("expected base to keep 1 layer, got %d", base.Len())
	}
	if withText.Len() != 2 {
		t.Fatalf("expected 2 layers, got %d", withText.Len())
	}
	if withText.Options().Scale.Set() {
		t.Fatalf("Scale leaked into its receiver")
	}
	if !scaled.Options().Scale.Set() {
		t.Fatalf("expected scale on derived timeline")
	}

	before, err := base.Compile("out.mp4")
	if err != nil {
		t.Fatalf("compile base: %v", err)
	}
	_ = base.AddImage("logo.png").SetResolution(640, 360).Trim(1, 2)
	after, err := base.Compile("out.mp4")
	if err != nil {
		t.Fatalf("compile base again: %v", err)
	}
	if before != after {
		t.Fatalf("base command changed:\n%s\n%s", before, after)
	}
}

func TestLayersReturnsCopies(t *testing.T) {
	tl := New().AddVideo("a.mp4", WithEffect("blur", Params{"sigma": 3}))
	layers := tl.Layers()
	layers[0].Source = "changed.mp4"
	layers[0].Effects[0].Params["sigma"] = 99

	again := tl.Layers()
	if again[0].Source != "a.mp4" {
		t.Errorf("source leaked: %q", again[0].Source)
	}
	if got := again[0].Effects[0].Params.Int("sigma", 0); got != 3 {
		t.Errorf("params leaked: %d", got)
	}
}

func TestBranchingSharesPrefix(t *testing.T) {
	base := New().AddVideo("a.mp4", For(10))
	left := base.AddText("A")
	right := base.AddText("B")

	leftGraph := filterGraph(t, left)
	rightGraph := filterGraph(t, right)
	if !strings.Contains(leftGraph, "text='A'") || strings.Contains(leftGraph, "text='B'") {
		t.Errorf("left branch has wrong text: %s", leftGraph)
	}
	if !strings.Contains(rightGraph, "text='B'") || strings.Contains(rightGraph, "text='A'") {
		t.Errorf("right branch has wrong text: %s", rightGraph)
	}
	if left.Layers()[1].Order != 1 || right.Layers()[1].Order != 1 {
		t.Errorf("expected both branches to assign order 1")
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		tl   *Timeline
		want float64
	}{
		{name: "empty", tl: New(), want: 0},
		{name: "explicit", tl: New().AddVideo("a.mp4", For(12)), want: 12},
		{name: "video default", tl: New().AddVideo("a.mp4"), want: DefaultVideoDuration},
		{name: "image default", tl: New().AddImage("a.png", At(2)), want: 2 + DefaultImageDuration},
		{name: "latest end wins", tl: New().AddVideo("a.mp4", For(4)).AddAudio("m.mp3", At(3), For(5)), want: 8},
		{name: "text does not extend", tl: New().AddImage("a.png", For(2)).AddText("hi"), want: 2},
		{name: "timed text extends", tl: New().AddImage("a.png", For(2)).AddText("hi", At(1), For(6)), want: 7},
		{name: "trim", tl: New().AddVideo("a.mp4", For(60)).Trim(10, 25), want: 15},
		{name: "override", tl: New().AddVideo("a.mp4", For(60)).Trim(10, 25).SetDuration(3), want: 3},
		{name: "policy", tl: New(func(o *GlobalOptions) { o.Policy.Image = 2 }).AddImage("a.png"), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tl.Err(); err != nil {
				t.Fatalf("unexpected construction error: %v", err)
			}
			if got := tt.tl.Duration(); got != tt.want {
				t.Fatalf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConcatShiftsLayers(t *testing.T) {
	first := New().AddVideo("a.mp4", For(10))
	second := New().AddVideo("b.mp4", For(5)).AddText("late", At(1), For(2))

	joined := first.Concat(second)
	if err := joined.Err(); err != nil {
		t.Fatalf("Concat: %v", err)
	}
	layers := joined.Layers()
	if len(layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(layers))
	}
	if layers[1].Start != 10 {
		t.Errorf("expected second clip at 10, got %v", layers[1].Start)
	}
	if layers[2].Start != 11 {
		t.Errorf("expected text at 11, got %v", layers[2].Start)
	}
	for i, l := range layers {
		if l.Order != i {
			t.Errorf("layer %d has order %d", i, l.Order)
		}
	}
	if got := joined.Duration(); got != 15 {
		t.Errorf("expected duration 15, got %v", got)
	}
	if second.Layers()[0].Start != 0 {
		t.Errorf("Concat mutated its argument")
	}
}

func TestConcatAllAndRepeat(t *testing.T) {
	clip := New().AddVideo("a.mp4", For(4))

	all := New().ConcatAll(clip, clip, clip)
	if err := all.Err(); err != nil {
		t.Fatalf("ConcatAll: %v", err)
	}
	repeated := clip.Repeat(3)
	if err := repeated.Err(); err != nil {
		t.Fatalf("Repeat: %v", err)
	}

	for name, tl := range map[string]*Timeline{"concat": all, "repeat": repeated} {
		layers := tl.Layers()
		if len(layers) != 3 {
			t.Fatalf("%s: expected 3 layers, got %d", name, len(layers))
		}
		for i, l := range layers {
			if want := float64(i * 4); l.Start != want {
				t.Errorf("%s: layer %d starts at %v, want %v", name, i, l.Start, want)
			}
		}
	}

	if err := New().ConcatAll().Err(); err == nil {
		t.Errorf("expected error for ConcatAll with no timelines")
	}
	if err := clip.Repeat(0).Err(); err == nil {
		t.Errorf("expected error for Repeat(0)")
	}
	if err := clip.Concat(nil).Err(); err == nil {
		t.Errorf("expected error for Concat(nil)")
	}
}

func TestPipe(t *testing.T) {
	watermark := func(tl *Timeline) *Timeline {
		return tl.AddImage("logo.png", PositionString("top-right"))
	}
	tl := New().AddVideo("a.mp4").Pipe(watermark)
	if tl.Len() != 2 {
		t.Fatalf("expected 2 layers, got %d", tl.Len())
	}

	base := New()
	same := base.Pipe(func(tl *Timeline) *Timeline { return tl })
	if same == base {
		t.Errorf("Pipe returned its receiver")
	}
	if err := base.Pipe(nil).Err(); err == nil {
		t.Errorf("expected error for nil func")
	}
	if err := base.Pipe(func(*Timeline) *Timeline { return nil }).Err(); err == nil {
		t.Errorf("expected error for nil result")
	}
}

func TestConstructionErrorIsSticky(t *testing.T) {
	tl := New().
		AddVideo("").
		AddText("ignored").
		Scale(1280, 720)

	err := tl.Err()
	var cerr *ConstructionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConstructionError, got %v", err)
	}
	if cerr.Op != "AddVideo" {
		t.Errorf("expected first failing op to be kept, got %q", cerr.Op)
	}
	if tl.Len() != 0 {
		t.Errorf("expected no layers after failure, got %d", tl.Len())
	}
	if _, err := tl.Compile("out.mp4"); !errors.As(err, &cerr) {
		t.Errorf("Compile should report the construction error, got %v", err)
	}
	if _, err := tl.ToJSON(); !errors.As(err, &cerr) {
		t.Errorf("ToJSON should report the construction error, got %v", err)
	}
}

func TestBuilderValidation(t *testing.T) {
	tests := []struct {
		name string
		tl   *Timeline
	}{
		{name: "negative start", tl: New().AddVideo("a.mp4", At(-1))},
		{name: "negative duration", tl: New().AddAudio("a.mp3", For(-2))},
		{name: "empty text", tl: New().AddText("")},
		{name: "bad transform", tl: New().AddText("x", Transform("shout"))},
		{name: "bad trim", tl: New().Trim(5, 5)},
		{name: "bad resolution", tl: New().SetResolution(0, 720)},
		{name: "bad frame rate", tl: New().SetFrameRate(-30)},
		{name: "bad aspect", tl: New().SetAspectRatio("wide")},
		{name: "bad crop", tl: New().Crop(Rect{Width: 0, Height: 10})},
		{name: "bad scale mode", tl: New().AddGreenScreenWithImageBackground("fg.mp4", "bg.png", GreenScreen{BackgroundScale: "zoom"})},
		{name: "bad transition", tl: New().AddImage("a.png", TransitionIn(Transition{Type: TransitionSlide, Duration: 1, Direction: "diagonal"}))},
		{name: "empty slideshow", tl: New().AddSlideshow(nil, 2)},
		{name: "zero slide", tl: New().AddSlideshow([]string{"a.png"}, 0)},
		{name: "nan start", tl: New().AddVideo("a.mp4", At(math.NaN()))},
		{name: "infinite duration", tl: New().AddImage("a.png", For(math.Inf(1)))},
		{name: "nan seek", tl: New().AddVideo("a.mp4", Seek(math.NaN()))},
		{name: "infinite opacity", tl: New().AddImage("a.png", Opacity(math.Inf(-1)))},
		{name: "nan timeline duration", tl: New().SetDuration(math.NaN())},
		{name: "infinite timeline duration", tl: New().SetDuration(math.Inf(1))},
		{name: "nan trim start", tl: New().Trim(math.NaN(), 5)},
		{name: "infinite trim end", tl: New().Trim(0, math.Inf(1))},
		{name: "nan slide", tl: New().AddSlideshow([]string{"a.png"}, math.NaN())},
		{name: "nan policy", tl: New(func(o *GlobalOptions) { o.Policy.Image = math.NaN() })},
		{name: "nan transition", tl: New().AddImage("a.png", TransitionIn(Transition{Type: TransitionFade, Duration: math.NaN()}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cerr *ConstructionError
			if !errors.As(tt.tl.Err(), &cerr) {
				t.Fatalf("expected ConstructionError, got %v", tt.tl.Err())
			}
		})
	}
}

func TestSlideshowLaysOutBackToBack(t *testing.T) {
	tl := New().AddSlideshow([]string{"a.png", "b.png", "c.png"}, 2.5, At(1))
	layers := tl.Layers()
	if len(layers) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(layers))
	}
	for i, l := range layers {
		if want := 1 + 2.5*float64(i); l.Start != want {
			t.Errorf("slide %d starts at %v, want %v", i, l.Start, want)
		}
		if l.Duration != 2.5 {
			t.Errorf("slide %d lasts %v", i, l.Duration)
		}
	}
	if got := tl.Duration(); got != 8.5 {
		t.Errorf("expected duration 8.5, got %v", got)
	}
}

func filterGraph(t *testing.T, tl *Timeline) string {
	t.Helper()
	cmd, err := tl.Command("out.mp4")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	graph, ok := cmd.Value("-filter_complex")
	if !ok {
		t.Fatalf("no filter graph in %v", cmd.Args)
	}
	return graph
}

func TestSourcesDeduplicates(t *testing.T) {
	tl := New().
		AddVideo("a.mp4").
		AddText("hi", FontFile("font.ttf")).
		AddImage("logo.png").
		AddGreenScreenWithImageBackground("fg.mp4", "logo.png", GreenScreen{}).
		AddAudio("a.mp4")

	got := tl.Sources()
	want := []string{"a.mp4", "font.ttf", "logo.png", "fg.mp4"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Sources() = %v, want %v", got, want)
	}
}
