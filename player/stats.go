package player

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/bugVanisher/wallplayer/media/stream"
	"github.com/bugVanisher/wallplayer/statistics"
	"github.com/rs/zerolog/log"
)

// maxSuppressed bounds the printed-info cache: an unchanged stats line
// is skipped at most this many seconds in a row.
const maxSuppressed = 10

type secondStats struct {
	Tick         uint64               `json:"tick"`
	FPS          uint32               `json:"fps"`
	DecodersOpen int                  `json:"decoders_open"`
	Draw         statistics.MinMaxSum `json:"draw_us"`
	RSS          uint64               `json:"rss"`
	VSZ          uint64               `json:"vsz"`
	Streams      []stream.Stats       `json:"streams"`
}

// printStats emits the per-second accounting line. An identical line is
// suppressed for a bounded number of seconds.
func (p *Player) printStats() {
	s := secondStats{
		Tick: p.tickCount,
		FPS:  p.fps.GetFPS(),
		Draw: p.renderer.DrawTime(),
	}
	for _, c := range p.streams {
		if c.DecoderOpen() {
			s.DecodersOpen++
		}
		s.Streams = append(s.Streams, c.Stats())
	}
	if proc, err := statistics.CurrentProcStat(); err == nil {
		s.RSS = proc.ResidentMemory()
		s.VSZ = proc.VirtualMemory()
	}

	line, err := jsoniter.MarshalToString(s)
	if err != nil {
		log.Warn().Err(err).Msg("stats marshal")
		return
	}
	// the tick counter always differs; cache the rest
	cached := line
	if idx := strings.IndexByte(line, ','); idx > 0 {
		cached = line[idx:]
	}
	if cached == p.lastPrinted && p.suppressed < maxSuppressed {
		p.suppressed++
		return
	}
	p.lastPrinted = cached
	p.suppressed = 0
	log.Info().RawJSON("stats", []byte(line)).Msg("second")
}
