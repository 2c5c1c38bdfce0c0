package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/bugVanisher/wallplayer/media/decoder"
	"github.com/bugVanisher/wallplayer/media/decoder/v4l2"
	"github.com/bugVanisher/wallplayer/media/fb"
	"github.com/bugVanisher/wallplayer/media/fb/fbdev"
	"github.com/bugVanisher/wallplayer/media/layout"
	"github.com/bugVanisher/wallplayer/media/render"
	"github.com/bugVanisher/wallplayer/media/stream"
	"github.com/bugVanisher/wallplayer/player"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Decode streams onto the framebuffer wall",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay()
	},
}

type playArgs struct {
	extraThreads       int
	connTimeoutSecs    int
	connWaitReconnSecs int
	decTimeoutSecs     int
	decWaitReopenSecs  int
	animWaitSecs       int
	animPreRenderSecs  int
	framesPerSec       int
	drawMode           string
	decodersMax        int
	decodersToPeekSecs int

	fbSpecs []string

	decoderDev string
	server     string
	port       int
	keepAlive  bool
	streams    []string
	files      []string

	framesSkip    int
	framesFeedMax int
	secsRun       int
	simDecTimeout bool
}

var play playArgs

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntVar(&play.extraThreads, "extra-threads", 0, "extra draw worker threads")
	playCmd.Flags().IntVar(&play.connTimeoutSecs, "conn-timeout-secs", 10, "close a connection after this many idle seconds")
	playCmd.Flags().IntVar(&play.connWaitReconnSecs, "conn-wait-reconn-secs", 5, "wait before reconnecting a lost source")
	playCmd.Flags().IntVar(&play.decTimeoutSecs, "decoder-timeout-secs", 5, "close a decoder after this many seconds without output")
	playCmd.Flags().IntVar(&play.decWaitReopenSecs, "decoder-wait-reopen-secs", 5, "wait before reopening a closed decoder")
	playCmd.Flags().IntVar(&play.animWaitSecs, "anim-wait", 10, "seconds each row stays before scrolling")
	playCmd.Flags().IntVar(&play.animPreRenderSecs, "anim-pre-render-secs", 2, "activate decoders this many seconds before their row appears")
	playCmd.Flags().IntVar(&play.framesPerSec, "frames-per-sec", 25, "screen refreshes per second")
	playCmd.Flags().StringVar(&play.drawMode, "draw-mode", "src", "draw plan order: src or dst")
	playCmd.Flags().IntVar(&play.decodersMax, "decoders-max", 16, "simultaneously open decoders")
	playCmd.Flags().IntVar(&play.decodersToPeekSecs, "decoders-to-peek-secs", 5, "peek budget for sizing unknown streams")

	playCmd.Flags().StringArrayVar(&play.fbSpecs, "fb", nil,
		"framebuffer 'dev:location:x:y' with location free|left|right|top|bottom; a bare 'new' seals the current groups")

	playCmd.Flags().StringVar(&play.decoderDev, "decoder-dev", "/dev/video10", "decoder device path")
	playCmd.Flags().StringVar(&play.server, "server", "", "stream server host")
	playCmd.Flags().IntVar(&play.port, "port", 80, "stream server port")
	playCmd.Flags().BoolVar(&play.keepAlive, "keep-alive", false, "reconnect sources even while their decoder is closed")
	playCmd.Flags().StringArrayVar(&play.streams, "stream", nil, "network stream path on the server (repeatable)")
	playCmd.Flags().StringArrayVar(&play.files, "file", nil, "local bitstream file (repeatable)")

	playCmd.Flags().IntVar(&play.framesSkip, "frames-skip", 0, "drop this many frames before feeding")
	playCmd.Flags().IntVar(&play.framesFeedMax, "frames-feed-max", 0, "stop a stream after feeding this many frames")
	playCmd.Flags().IntVar(&play.secsRun, "secs-run", 0, "run for this many seconds then exit")
	playCmd.Flags().BoolVar(&play.simDecTimeout, "sim-decoder-timeout", false, "debug: force the decoder inactivity path")
}

func parseLocation(s string) (layout.Location, error) {
	switch s {
	case "free":
		return layout.LocFree, nil
	case "left":
		return layout.LocLeft, nil
	case "right":
		return layout.LocRight, nil
	case "top":
		return layout.LocTop, nil
	case "bottom":
		return layout.LocBottom, nil
	}
	return layout.LocFree, fmt.Errorf("unknown framebuffer location %q", s)
}

// buildGroups opens the framebuffer devices in order and groups them by
// pixel format; a 'new' entry seals every open group.
func buildGroups(openFB fb.OpenFunc) ([]*layout.Group, error) {
	var groups []*layout.Group

	openGroup := func(pixFmt decoder.PixFmt) *layout.Group {
		for _, g := range groups {
			if !g.Closed && g.PixFmt == pixFmt {
				return g
			}
		}
		g := layout.NewGroup(pixFmt, play.animWaitSecs*1000, play.animPreRenderSecs*1000)
		groups = append(groups, g)
		return g
	}

	for _, spec := range play.fbSpecs {
		if spec == "new" {
			for _, g := range groups {
				g.Closed = true
			}
			continue
		}
		parts := strings.Split(spec, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("framebuffer spec %q, want dev:location:x:y", spec)
		}
		loc, err := parseLocation(parts[1])
		if err != nil {
			return nil, err
		}
		x, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("framebuffer spec %q: %v", spec, err)
		}
		y, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("framebuffer spec %q: %v", spec, err)
		}

		dev, err := openFB(parts[0])
		if err != nil {
			return nil, err
		}
		f, err := fb.NewFramebuffer(dev, 0, 0)
		if err != nil {
			dev.Close()
			return nil, err
		}
		openGroup(f.PixFmt).AddFramebuffer(f, loc, x, y)
	}
	return groups, nil
}

func runPlay() error {
	if len(play.fbSpecs) == 0 {
		return fmt.Errorf("at least one --fb is required")
	}
	if len(play.streams)+len(play.files) == 0 {
		return fmt.Errorf("at least one --stream or --file is required")
	}

	mode := render.ModeSrc
	switch play.drawMode {
	case "src":
	case "dst":
		mode = render.ModeDst
	default:
		return fmt.Errorf("unknown draw mode %q", play.drawMode)
	}

	groups, err := buildGroups(fbdev.Open)
	if err != nil {
		return err
	}
	defer func() {
		for _, g := range groups {
			for _, f := range g.FBs {
				f.Close()
			}
		}
	}()

	var capFmts []decoder.PixFmt
	for _, g := range groups {
		seen := false
		for _, f := range capFmts {
			if f == g.PixFmt {
				seen = true
				break
			}
		}
		if !seen {
			capFmts = append(capFmts, g.PixFmt)
		}
	}

	p := player.NewPlayer(player.Config{
		FramesPerSec:       play.framesPerSec,
		ExtraThreads:       play.extraThreads,
		DecodersMax:        play.decodersMax,
		DecodersToPeekSecs: play.decodersToPeekSecs,
		DrawMode:           mode,
		SecsRun:            play.secsRun,
	})
	for _, g := range groups {
		p.AddGroup(g)
	}

	id := 0
	addStream := func(url string, isFile bool) error {
		id++
		return p.AddStream(stream.Config{
			ID:                    id,
			SID:                   "stream-" + strconv.Itoa(id),
			DecoderDev:            play.decoderDev,
			URL:                   url,
			IsFile:                isFile,
			CapturePixFmts:        capFmts,
			ConnTimeoutSecs:       play.connTimeoutSecs,
			ConnWaitReconnSecs:    play.connWaitReconnSecs,
			DecoderTimeoutSecs:    play.decTimeoutSecs,
			DecoderWaitReopenSecs: play.decWaitReopenSecs,
			KeepAlive:             play.keepAlive,
			FramesSkip:            play.framesSkip,
			FramesFeedMax:         play.framesFeedMax,
			SimDecoderTimeout:     play.simDecTimeout,
			OpenDevice:            v4l2.Open,
		})
	}
	for _, path := range play.streams {
		if play.server == "" {
			return fmt.Errorf("--stream requires --server")
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		url := fmt.Sprintf("http://%s:%d%s", play.server, play.port, path)
		if err := addStream(url, false); err != nil {
			return err
		}
	}
	for _, path := range play.files {
		if err := addStream(path, true); err != nil {
			return err
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		p.Stop()
	}()
	defer signal.Stop(sigCh)

	return p.Run()
}
