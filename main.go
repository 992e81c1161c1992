package main

import (
	"flag"
	"log"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/rope/common"
)

func main() {
	var cfg GameConfig
	flag.StringVar(&cfg.Level, "level", "playground", "level name in levels/ (basename, .json optional)")
	flag.BoolVar(&cfg.Debug, "debug", false, "draw physics shapes and joints")
	flag.BoolVar(&cfg.Watch, "watch", true, "reload prefabs, scripts and levels when they change on disk")
	flag.Func("static-end", "force every rope's end anchor static (true) or free (false)", func(s string) error {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		cfg.Overrides.StaticEnd = &v
		return nil
	})
	flag.Func("scale", "override every rope's interval scale factor", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		cfg.Overrides.IntervalScaleFactor = &v
		return nil
	})
	flag.Parse()

	game, err := NewGame(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("rope")
	ebiten.SetTPS(common.TPS)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
