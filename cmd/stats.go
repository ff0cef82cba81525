package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/df07/go-photon-cache/pkg/photongi"
	"github.com/df07/go-photon-cache/pkg/scene"
)

// BuildStats builds a photon cache over a canned scene and prints the
// resulting photon map statistics
func BuildStats(ctx *cli.Context) error {
	setupLogging(ctx)

	var s *scene.Scene
	switch sceneType := ctx.String("scene"); sceneType {
	case "cornell":
		s = scene.NewCornellScene()
	case "caustic":
		s = scene.NewCausticScene()
	default:
		return fmt.Errorf("unknown scene type: %q", sceneType)
	}

	props := photongi.Properties{
		"path.photongi.sampler.type":     ctx.String("sampler"),
		"path.photongi.photon.maxcount":  strconv.Itoa(ctx.Int("photon-maxcount")),
		"path.photongi.photon.maxdepth":  strconv.Itoa(ctx.Int("photon-maxdepth")),
		"path.photongi.direct.enabled":   strconv.FormatBool(ctx.Bool("direct")),
		"path.photongi.indirect.enabled": strconv.FormatBool(ctx.Bool("indirect")),
		"path.photongi.caustic.enabled":  strconv.FormatBool(ctx.Bool("caustic")),
	}

	cache, err := photongi.FromProperties(s, props)
	if err != nil {
		return err
	}
	if cache == nil {
		return fmt.Errorf("no photon class enabled; pass at least one of --direct, --indirect, --caustic")
	}

	logger.Infof("building photon cache over the %s scene", ctx.String("scene"))
	if err := cache.Preprocess(context.Background()); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Map", "Stored", "Traced", "BVH"})
	table.Append([]string{
		"direct",
		strconv.Itoa(cache.DirectPhotonStoredCount()),
		strconv.FormatUint(cache.DirectPhotonTracedCount(), 10),
		strconv.FormatBool(cache.DirectPhotonsBVH() != nil),
	})
	table.Append([]string{
		"caustic",
		strconv.Itoa(cache.CausticPhotonStoredCount()),
		strconv.FormatUint(cache.CausticPhotonTracedCount(), 10),
		strconv.FormatBool(cache.CausticPhotonsBVH() != nil),
	})
	table.Append([]string{
		"radiance",
		strconv.Itoa(cache.RadiancePhotonStoredCount()),
		"-",
		strconv.FormatBool(cache.RadiancePhotonsBVH() != nil),
	})
	table.Render()

	return nil
}
