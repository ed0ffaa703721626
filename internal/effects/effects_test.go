package effects

import (
	"errors"
	"strings"
	"testing"

	"reelcraft/internal/filtergraph"
	"reelcraft/internal/position"
)

func render(filters []filtergraph.Filter) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

func TestBuiltinEffects(t *testing.T) {
	cases := []struct {
		name   string
		params Params
		want   string
	}{
		{"brightness", Params{"value": 0.2}, "eq=brightness=0.2"},
		{"contrast", nil, "eq=contrast=1"},
		{"grayscale", nil, "hue=s=0"},
		{"blur", Params{"sigma": 3}, "gblur=sigma=3"},
		{"fadein", Params{"duration": 2}, "fade=t=in:st=0:d=2"},
		{"fade", Params{"type": "out", "start": 8, "duration": 2, "color": "#fff"}, "fade=t=out:st=8:d=2:c=0xFFFFFF"},
		{"crop", Params{"width": 640, "height": 360, "x": 10, "y": 20}, "crop=640:360:10:20"},
		{"crop", Params{"width": 640, "height": 360}, "crop=640:360:(iw-ow)/2:(ih-oh)/2"},
		{"scale", Params{"width": 1280, "height": 720}, "scale=1280:720"},
		{"rotate", Params{"degrees": 90}, "transpose=dir=clock"},
		{"rotate", Params{"degrees": 45}, "rotate=a=45*PI/180"},
		{"speed", Params{"factor": 2}, "setpts=PTS/2"},
		{"chromakey", Params{"color": "#00ff00", "similarity": 0.3}, "chromakey=color=0x00FF00:similarity=0.3:blend=0.1"},
		{"volume", Params{"gain": 0.5}, "volume=0.5"},
		{"afadeout", Params{"start": 9, "duration": 1}, "afade=t=out:st=9:d=1"},
		{"lowpass", nil, "lowpass=f=15000"},
		{"normalize", nil, "loudnorm=I=-16:TP=-1.5:LRA=11"},
		{"atempo", Params{"factor": 3}, "atempo=2,atempo=1.5"},
		{"denoise", Params{"strength": "light"}, "hqdn3d=2:1.5:3:2.25"},
	}

	reg := Default()
	for _, tc := range cases {
		_, filters, err := reg.Build(tc.name, tc.params)
		if err != nil {
			t.Fatalf("Build(%s): %v", tc.name, err)
		}
		if got := render(filters); got != tc.want {
			t.Errorf("Build(%s) = %q; want %q", tc.name, got, tc.want)
		}
	}
}

func TestZoomPanQuotesExpressions(t *testing.T) {
	_, filters, err := Default().Build("zoompan", Params{"duration": 2, "fps": 25, "anchor": "top-left", "width": 1920, "height": 1080})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := render(filters)
	want := "zoompan=z='1+(0.3)*on/50':x='0':y='0':d=50:s=1920x1080:fps=25"
	if got != want {
		t.Fatalf("zoompan = %q; want %q", got, want)
	}
}

func TestUnknownEffect(t *testing.T) {
	_, err := Default().Lookup("sparkle")
	if !errors.Is(err, ErrUnknownEffect) {
		t.Fatalf("expected ErrUnknownEffect, got %v", err)
	}
	if !strings.Contains(err.Error(), "sparkle") {
		t.Fatalf("error should name the effect: %v", err)
	}
}

func TestRegistryWithDoesNotMutate(t *testing.T) {
	base := Default()
	extended := base.With(Effect{Name: "Posterize", Build: fixed("posterize")})
	if _, err := base.Lookup("posterize"); err == nil {
		t.Fatal("base registry should not gain effects")
	}
	if _, err := extended.Lookup("posterize"); err != nil {
		t.Fatalf("extended lookup: %v", err)
	}
	if len(extended.Names()) != len(base.Names())+1 {
		t.Fatalf("extended has %d names; base %d", len(extended.Names()), len(base.Names()))
	}
}

func TestOutOfRangeParamsPassThrough(t *testing.T) {
	_, filters, err := Default().Build("chromakey", Params{"similarity": 4.5, "color": "#GG0000"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := render(filters)
	if !strings.Contains(got, "similarity=4.5") || !strings.Contains(got, "color=#GG0000") {
		t.Fatalf("expected verbatim values, got %q", got)
	}
}

func TestNormalizeColor(t *testing.T) {
	cases := map[string]string{
		"#00FF00":   "0x00FF00",
		"#00ff00":   "0x00FF00",
		"#0f0":      "0x00FF00",
		"#00ff0080": "0x00FF0080",
		"green":     "green",
		"0x123456":  "0x123456",
		"#12345":    "#12345",
	}
	for in, want := range cases {
		if got := NormalizeColor(in); got != want {
			t.Errorf("NormalizeColor(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestBackgroundScaleModesAreDistinct(t *testing.T) {
	want := map[ScaleMode]string{
		ScaleFit:     "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2:color=black",
		ScaleFill:    "scale=1920:1080:force_original_aspect_ratio=increase,crop=1920:1080:(iw-ow)/2:(ih-oh)/2",
		ScaleStretch: "scale=1920:1080",
		ScaleCrop:    "crop=1920:1080:(iw-1920)/2:(ih-1080)/2",
	}
	seen := map[string]ScaleMode{}
	for mode, expected := range want {
		filters, err := BackgroundScale(mode, 1920, 1080)
		if err != nil {
			t.Fatalf("BackgroundScale(%s): %v", mode, err)
		}
		got := render(filters)
		if got != expected {
			t.Errorf("BackgroundScale(%s) = %q; want %q", mode, got, expected)
		}
		if other, dup := seen[got]; dup {
			t.Errorf("modes %s and %s share formula %q", mode, other, got)
		}
		seen[got] = mode
	}

	if _, err := ParseScaleMode("zoom"); err == nil {
		t.Fatal("expected error for unknown scale mode")
	}
	if mode, err := ParseScaleMode(""); err != nil || mode != DefaultScaleMode {
		t.Fatalf("ParseScaleMode(\"\") = %q, %v", mode, err)
	}
}

func TestTransitionValidate(t *testing.T) {
	cases := []struct {
		tr      Transition
		wantErr bool
	}{
		{Transition{Type: TransitionFade, Duration: 1}, false},
		{Transition{Type: TransitionSlide, Duration: 0.5, Direction: "up", Easing: EaseInOut}, false},
		{Transition{Type: TransitionFade, Duration: -1}, true},
		{Transition{Type: "wipe", Duration: 1}, true},
		{Transition{Type: TransitionSlide, Duration: 1, Direction: "sideways"}, true},
		{Transition{Type: TransitionZoom, Duration: 1, Easing: "bounce"}, true},
	}
	for _, tc := range cases {
		err := tc.tr.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("Validate(%+v) error = %v; wantErr %v", tc.tr, err, tc.wantErr)
		}
	}
}

func TestEaseExpr(t *testing.T) {
	cases := map[Easing]string{
		Linear:    "p",
		EaseIn:    "pow(p,2)",
		EaseOut:   "1-pow(1-p,2)",
		EaseInOut: "p*p*(3-2*p)",
	}
	for e, want := range cases {
		got, err := EaseExpr(e, "p")
		if err != nil || got != want {
			t.Errorf("EaseExpr(%s) = %q, %v; want %q", e, got, err, want)
		}
	}
}

func TestStreamFiltersFade(t *testing.T) {
	in := &Transition{Type: TransitionFade, Duration: 1}
	out := &Transition{Type: TransitionFade, Duration: 2}
	got := render(StreamFilters(in, out, 3, 10))
	want := "format=yuva420p,fade=t=in:st=3:d=1:alpha=1,fade=t=out:st=8:d=2:alpha=1"
	if got != want {
		t.Fatalf("StreamFilters = %q; want %q", got, want)
	}
}

func TestStreamFiltersClampsToSpan(t *testing.T) {
	in := &Transition{Type: TransitionFade, Duration: 10}
	got := render(StreamFilters(in, nil, 0, 4))
	if !strings.Contains(got, "d=4") {
		t.Fatalf("fade should clamp to layer span, got %q", got)
	}
}

func TestSlidePosition(t *testing.T) {
	in := &Transition{Type: TransitionSlide, Duration: 1, Direction: FromLeft}
	x, y := SlidePosition(in, nil, 2, 6, "10", "20", position.OverlayFrame(1920, 1080))
	if x != "-overlay_w+((10)-(-overlay_w))*clip((t-2)/1,0,1)" {
		t.Fatalf("slide x = %q", x)
	}
	if y != "20" {
		t.Fatalf("slide should not move y, got %q", y)
	}

	out := &Transition{Type: TransitionSlide, Duration: 1, Direction: FromBottom}
	x, y = SlidePosition(nil, out, 2, 6, "10", "20", position.OverlayFrame(1920, 1080))
	if x != "10" {
		t.Fatalf("slide out should not move x, got %q", x)
	}
	if y != "if(lt(t,5),20,20+((main_h)-(20))*clip((t-5)/1,0,1))" {
		t.Fatalf("slide out y = %q", y)
	}
}

func TestParamsAcceptEveryNumericType(t *testing.T) {
	values := []any{uint(3), uint8(3), uint16(3), uint32(3), uint64(3), int8(3), int16(3), int32(3), int64(3), float32(3), 3, 3.0}
	for _, v := range values {
		p := Params{"n": v}
		if got := p.Float("n", -1); got != 3 {
			t.Errorf("Float(%T) = %v; want 3", v, got)
		}
		if got := p.Int("n", -1); got != 3 {
			t.Errorf("Int(%T) = %v; want 3", v, got)
		}
		if got := p.String("n", ""); got != "3" {
			t.Errorf("String(%T) = %q; want 3", v, got)
		}
		if got, ok := p.Clone()["n"].(float64); !ok || got != 3 {
			t.Errorf("Clone(%T) stored %#v; want float64 3", v, p.Clone()["n"])
		}
	}

	if got := (Params{"n": float32(0.1)}).Clone()["n"]; got != 0.1 {
		t.Errorf("float32 0.1 cloned to %v", got)
	}
}
