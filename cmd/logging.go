package cmd

import (
	"github.com/df07/go-photon-cache/pkg/log"
	"github.com/urfave/cli"
)

var logger = log.New("photon-cache")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
