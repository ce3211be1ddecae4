// Public domain.

package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/soniakeys/exit"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/skyfit/internal/sfephem"
	"github.com/soniakeys/skyfit/internal/sftab"
	"github.com/soniakeys/skyfit/internal/skybright"
	"github.com/soniakeys/unit"
)

const versionString = "skysim version 0.1 Go source."
const copyrightString = "Public domain."

// the sun this far past the zenith makes a dark enough sky
const sunDown = 100 // degrees

func main() {
	defer exit.Handler()

	flag.Usage = func() {
		os.Stderr.WriteString(`Usage:
  skysim [options]    Write a synthetic observation table to stdout.
  skysim -v           Display version and copyright.

Options:
  -n     <number of observations>
  -mdark <dark sky magnitude>
  -kx    <extinction coefficient>
  -noise <gaussian noise sigma, magnitudes>
  -seed  <random seed, 0 seeds from the clock>
  -site  <lat,lon[,height]>
  -jd0   <start of span>
  -days  <length of span>
  -maxz  <maximum field zenith angle, degrees>

For full documentation:
   go doc github.com/soniakeys/skyfit/skysim
`)
	}
	n := flag.Int("n", 100, "number of observations")
	mdark := flag.Float64("mdark", 21.9, "dark sky magnitude")
	kx := flag.Float64("kx", .17, "extinction coefficient")
	noise := flag.Float64("noise", .05, "gaussian noise sigma")
	seed := flag.Int64("seed", 0, "random seed")
	siteSpec := flag.String("site", "", "geographic coordinates")
	jd0 := flag.Float64("jd0", 2460676.5, "start of span")
	days := flag.Float64("days", 30, "length of span")
	maxz := flag.Float64("maxz", 80, "maximum field zenith angle")
	vers := flag.Bool("v", false, "display version and copyright")
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(1)
	}

	// Mauna Kea unless told otherwise
	site := sfephem.SiteFromCoords(19.828, -155.478, 4205)
	if *siteSpec > "" {
		var err error
		if site, err = parseSite(*siteSpec); err != nil {
			exit.Log(err)
		}
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(uint64(*seed))
	norm := distuv.Normal{Mu: 0, Sigma: *noise, Src: rnd}

	model := skybright.New(nil)
	truth := skybright.Params{MDark: *mdark, KX: *kx}

	// generating parameters go on a comment line so a table can be
	// reproduced or checked against a later fit
	fmt.Printf("# skysim -mdark %g -kx %g -noise %g -seed %d\n",
		*mdark, *kx, *noise, *seed)
	fmt.Println("jd, ra, dec, sky")
	for i := 0; i < *n; i++ {
		jd, raDeg, decDeg, g := draw(rnd, site, *jd0, *days, *maxz)
		fmt.Printf("%.5f, %.5f, %.5f, %.3f\n",
			jd, raDeg, decDeg, model.Sky(g, truth)+norm.Rand())
	}
}

// draw one observation: a random time with the sun well down and a
// random field above the zenith angle cut.
func draw(rnd *xrand.Rand, site *sfephem.Site, jd0, days, maxz float64) (jd, raDeg, decDeg float64, g skybright.Geom) {
	for try := 0; ; try++ {
		if try == 10000 {
			exit.Log("no dark time at this site over the span")
		}
		jd = jd0 + rnd.Float64()*days
		sunα, sunδ := solar.ApparentEquatorial(jd)
		if site.ZenithAngle(jd, sunα, sunδ).Deg() >= sunDown {
			break
		}
	}
	for try := 0; ; try++ {
		if try == 10000 {
			exit.Log("can not place a field above the zenith angle cut")
		}
		// uniform over the celestial sphere, then cut
		raDeg = 360 * rnd.Float64()
		decDeg = math.Asin(2*rnd.Float64()-1) * 180 / math.Pi
		g = sfephem.Geometry(sftab.Obs{
			JD:  jd,
			RA:  unit.RA(unit.AngleFromDeg(raDeg)),
			Dec: unit.AngleFromDeg(decDeg),
		}, site)
		if g.Z.Deg() <= maxz {
			return
		}
	}
}

// parseSite interprets "lat,lon" or "lat,lon,height", latitude and
// east longitude in degrees, height in meters.
func parseSite(s string) (*sfephem.Site, error) {
	f := strings.Split(s, ",")
	if len(f) != 2 && len(f) != 3 {
		return nil, fmt.Errorf("-site wants lat,lon or lat,lon,height")
	}
	var c [3]float64
	for i, s := range f {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err
		}
		c[i] = v
	}
	if c[0] < -90 || c[0] > 90 {
		return nil, fmt.Errorf("-site latitude out of range")
	}
	return sfephem.SiteFromCoords(c[0], c[1], c[2]), nil
}
