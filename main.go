package main

import (
	"fmt"
	"os"

	"github.com/df07/go-photon-cache/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "photon-cache"
	app.Usage = "precompute photon-mapping global illumination caches"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "stats",
			Usage: "build a photon cache over a canned scene and print its statistics",
			Description: `
Run the full cache preprocessing pass (visibility particles, photon
tracing, BVH construction and radiance pre-integration) over one of the
built-in scenes and report the resulting photon map sizes.`,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "scene",
					Value: "cornell",
					Usage: "scene to trace: 'cornell' or 'caustic'",
				},
				cli.StringFlag{
					Name:  "sampler",
					Value: "METROPOLIS",
					Usage: "photon sampler: RANDOM or METROPOLIS",
				},
				cli.IntFlag{
					Name:  "photon-maxcount",
					Value: 500000,
					Usage: "upper bound on traced photons",
				},
				cli.IntFlag{
					Name:  "photon-maxdepth",
					Value: 4,
					Usage: "max light-path length",
				},
				cli.BoolFlag{
					Name:  "direct",
					Usage: "enable the direct photon cache",
				},
				cli.BoolFlag{
					Name:  "indirect",
					Usage: "enable the indirect (radiance) photon cache",
				},
				cli.BoolFlag{
					Name:  "caustic",
					Usage: "enable the caustic photon cache",
				},
			},
			Action: cmd.BuildStats,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
