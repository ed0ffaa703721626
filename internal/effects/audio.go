package effects

import (
	"fmt"

	"reelcraft/internal/filtergraph"
)

func audioEffects() []Effect {
	return []Effect{
		{Name: "volume", Stream: Audio, Timeline: true, Ranges: "gain >= 0, 1 is unity", Build: buildVolume},
		{Name: "afadein", Stream: Audio, Ranges: "start >= 0, duration > 0", Build: buildAudioFade("in")},
		{Name: "afadeout", Stream: Audio, Ranges: "start >= 0, duration > 0", Build: buildAudioFade("out")},
		{Name: "highpass", Stream: Audio, Timeline: true, Ranges: "frequency 0..sample_rate/2", Build: passBuilder("highpass", 200)},
		{Name: "lowpass", Stream: Audio, Timeline: true, Ranges: "frequency 0..sample_rate/2", Build: passBuilder("lowpass", 15000)},
		{Name: "normalize", Stream: Audio, Ranges: "I -70..-5, TP -9..0, LRA 1..50", Build: buildLoudnorm},
		{Name: "atempo", Stream: Audio, Ranges: "factor > 0", Build: buildAtempo},
	}
}

func buildVolume(p Params) ([]filtergraph.Filter, error) {
	return []filtergraph.Filter{VolumeFilter(p.Float("gain", p.Float("value", 1)))}, nil
}

// VolumeFilter renders volume=G.
func VolumeFilter(gain float64) filtergraph.Filter {
	return filtergraph.New("volume", filtergraph.Pos(filtergraph.FormatFloat(gain)))
}

func buildAudioFade(kind string) BuildFunc {
	return func(p Params) ([]filtergraph.Filter, error) {
		return []filtergraph.Filter{AudioFade(kind, p.Float("start", 0), p.Float("duration", 1))}, nil
	}
}

// AudioFade renders afade for the given direction.
func AudioFade(kind string, start, duration float64) filtergraph.Filter {
	return filtergraph.New("afade",
		filtergraph.KV("t", kind),
		filtergraph.Float("st", start),
		filtergraph.Float("d", duration),
	)
}

func passBuilder(name string, def int) BuildFunc {
	return func(p Params) ([]filtergraph.Filter, error) {
		return []filtergraph.Filter{filtergraph.New(name, filtergraph.Int("f", p.Int("frequency", def)))}, nil
	}
}

func buildLoudnorm(p Params) ([]filtergraph.Filter, error) {
	return []filtergraph.Filter{filtergraph.New("loudnorm",
		filtergraph.Float("I", p.Float("integrated", -16)),
		filtergraph.Float("TP", p.Float("truePeak", -1.5)),
		filtergraph.Float("LRA", p.Float("lra", 11)),
	)}, nil
}

func buildAtempo(p Params) ([]filtergraph.Filter, error) {
	factor := p.Float("factor", 1)
	if factor <= 0 {
		return nil, fmt.Errorf("atempo factor must be positive, got %s", filtergraph.FormatFloat(factor))
	}
	return AtempoChain(factor), nil
}

// AtempoChain splits a speed factor into atempo stages, each within the
// 0.5..2.0 range the filter accepts.
func AtempoChain(factor float64) []filtergraph.Filter {
	if factor <= 0 {
		return nil
	}
	var chain []filtergraph.Filter
	remaining := factor
	for remaining > 2.0 {
		chain = append(chain, filtergraph.New("atempo", filtergraph.Pos("2")))
		remaining /= 2.0
	}
	for remaining < 0.5 {
		chain = append(chain, filtergraph.New("atempo", filtergraph.Pos("0.5")))
		remaining /= 0.5
	}
	if remaining != 1.0 {
		chain = append(chain, filtergraph.New("atempo", filtergraph.Pos(filtergraph.FormatFloat(remaining))))
	}
	return chain
}
