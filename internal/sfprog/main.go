// Public domain.

package sfprog

import (
	"bufio"
	"flag"
	"fmt"
	"go/build"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/soniakeys/exit"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/mpcformat"
	"github.com/soniakeys/observation"
	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/skyfit/internal/sfephem"
	"github.com/soniakeys/skyfit/internal/sfsolver"
	"github.com/soniakeys/skyfit/internal/sftab"
	"github.com/soniakeys/skyfit/internal/skybright"
)

const parentImport = "skyfit"
const versionString = "skyfit version 0.1 Go source."
const copyrightString = "Public domain."

func Main() {
	defer exit.Handler()

	// these functions all set up from flags and files and terminate
	// on error
	cl := parseCommandLine()
	x, start, opt, site, obscode := readConfig(cl)
	site = resolveSite(cl, site, obscode)
	obs, dropped := readObs(cl)

	// remainder of main is the synchronous pipeline: viewing geometry,
	// least squares fit, report.
	geom := sfephem.Augment(obs, site)
	mag := make([]float64, len(obs))
	for i, o := range obs {
		mag[i] = o.Mag
	}
	model := skybright.New(x)
	r, err := sfsolver.Fit(func(dst, p []float64) {
		model.Residuals(dst, mag, geom,
			skybright.Params{MDark: p[0], KX: p[1]})
	}, len(obs), []float64{start.MDark, start.KX}, sfsolver.Settings{})
	if err != nil {
		exit.Log(err)
	}
	printReport(opt, obs, geom, model, r, dropped)
}

// open and parse the observation table, terminating on error.
func readObs(cl *commandLine) ([]sftab.Obs, int) {
	var f *os.File
	if cl.fnObs == "-" {
		f = os.Stdin
		cl.fnObs = "input stream"
	} else {
		var err error
		f, err = os.Open(cl.fnObs)
		if err != nil {
			exit.Log(err)
		}
		defer f.Close()
	}
	obs, dropped, err := sftab.Read(f)
	if err != nil {
		exit.Log(err)
	}
	return obs, dropped
}

// resolveSite settles the observing site.  A -s argument overrides the
// config file.  Geographic coordinates resolve immediately, an obscode
// resolves against the obscode file, downloading it if needed.
func resolveSite(cl *commandLine, site *sfephem.Site, obscode string) *sfephem.Site {
	if cl.s > "" {
		s, errStr := parseSiteSpec(cl.s)
		if errStr > "" {
			exit.Log("Invalid -s argument: " + errStr)
		}
		if s != nil {
			return s
		}
		site = nil
		obscode = cl.s
	}
	if site != nil {
		return site
	}
	site, err := sfephem.SiteFromCode(obscode, readOcd(cl))
	if err != nil {
		exit.Log(err)
	}
	return site
}

// parseSiteSpec interprets geographic site coordinates, "lat,lon" or
// "lat,lon,height", latitude and east longitude in degrees, height in
// meters.  A spec without a comma is taken for an obscode and returned
// as a nil Site with no error.
func parseSiteSpec(s string) (*sfephem.Site, string) {
	if !strings.Contains(s, ",") {
		return nil, ""
	}
	f := strings.Split(s, ",")
	if len(f) > 3 {
		return nil, "Site wants lat,lon or lat,lon,height."
	}
	var c [3]float64
	for i, s := range f {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err.Error()
		}
		c[i] = v
	}
	if c[0] < -90 || c[0] > 90 {
		return nil, "Latitude out of range."
	}
	return sfephem.SiteFromCoords(c[0], c[1], c[2]), ""
}

type commandLine struct {
	dc    string // config file
	do    string // obscode file
	dp    string // default path
	s     string // site, obscode or geographic coordinates
	fnObs string // observations
}

func parseCommandLine() *commandLine {
	// Package path of skyfit is used as the default location for the
	// config and obscode files.
	pp, ppErr := build.Import(parentImport, "", build.FindOnly)
	var cl commandLine
	if ppErr == nil {
		cl.dp = pp.Dir
	}
	dh := flag.Bool("h", false, "")
	dv := flag.Bool("v", false, "")
	flag.StringVar(&cl.dc, "c", "", "")
	flag.StringVar(&cl.do, "o", "", "")
	flag.StringVar(&cl.dp, "p", cl.dp, "")
	flag.StringVar(&cl.s, "s", "", "")
	flag.Usage = func() {
		os.Stderr.WriteString(`
Usage: skyfit [options] <obsfile>    fit sky brightness in file
       skyfit [options] -            fit sky brightness from stdin
       skyfit -h                     display help and quick reference
       skyfit -v                     display version and copyright

Options:
       -c <config-file>
       -o <obscode-file>
       -s <site>
       -p <path>
`)
		if ppErr == nil {
			os.Stderr.WriteString(`
Default:
       -p=` + pp.Dir + "\n")
		}
	}
	flag.Parse()
	switch {
	case *dh:
		printHelp()
		os.Exit(0)
	case *dv:
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	case flag.NArg() != 1:
		flag.Usage()
		os.Exit(1)
	}
	cl.fnObs = flag.Arg(0)
	return &cl
}

func readOcd(cl *commandLine) observation.ParallaxMap {
	ocdFile := cl.fixupCP(cl.do, "skyfit.obscodes")
	ocdMap, readErr := mpcformat.ReadObscodeDatFile(ocdFile)
	if readErr == nil {
		return ocdMap
	}
	// that didn't work.  try getting a fresh copy.
	if err := mpcformat.FetchObscodeDat(ocdFile); err != nil {
		log.Println(readErr) // show error from read attempt,
		exit.Log(err)        // and error from download attempt
	}
	// retry with downloaded file.  see if this copy works better
	if ocdMap, readErr = mpcformat.ReadObscodeDatFile(ocdFile); readErr != nil {
		exit.Log(readErr)
	}
	return ocdMap
}

type outputOptions struct {
	headings, residuals bool
}

func readConfig(cl *commandLine) (x skybright.AirmassFunc,
	start skybright.Params, opt *outputOptions,
	site *sfephem.Site, obscode string) {
	// default configuration
	x = skybright.Airmass
	start = skybright.Params{MDark: 21.5, KX: .2}
	opt = new(outputOptions)
	opt.headings = true
	obscode = "568"
	f, err := os.Open(cl.fixupCP(cl.dc, "skyfit.config"))
	if err != nil {
		if cl.dc == "" {
			return
		}
		exit.Log(err)
	}
	defer f.Close()

	rxKey := regexp.MustCompile(`^([a-z]+)[ \t]*=[ \t]*(.+)$`)
	parseStart := func(s string) (parseErr string) {
		f := strings.Split(s, ",")
		if len(f) != 2 {
			return "Start wants mdark,kx."
		}
		md, err := strconv.ParseFloat(strings.TrimSpace(f[0]), 64)
		if err != nil {
			return err.Error()
		}
		kx, err := strconv.ParseFloat(strings.TrimSpace(f[1]), 64)
		if err != nil {
			return err.Error()
		}
		start = skybright.Params{MDark: md, KX: kx}
		return ""
	}
read:
	for lr := bufio.NewReader(f); ; {
		l, isPre, err := lr.ReadLine()
		switch {
		case err == io.EOF:
			return
		case err != nil:
			exit.Log(err)
		case isPre:
			exit.Log("Unexpected long line in config file.")
		case len(l) == 0:
			continue
		case l[0] == '#':
			continue
		}
		ls := string(l)
		switch ls {
		case "headings":
			opt.headings = true
			continue
		case "noheadings":
			opt.headings = false
			continue
		case "residuals":
			opt.residuals = true
			continue
		case "noresiduals":
			opt.residuals = false
			continue
		}
		ss := rxKey.FindStringSubmatch(ls)
		if ss == nil {
			exit.Log("Unrecognized line in config file: " + ls)
		}
		val := strings.TrimSpace(ss[2])
		switch ss[1] {
		case "airmass":
			for _, e := range skybright.XList {
				if val == e.Name {
					x = e.X
					continue read
				}
			}
			exit.Log("Unknown airmass function: " + val)
		case "obscode":
			obscode = val
			continue
		case "site":
			var errStr string
			if site, errStr = parseSiteSpec(val); errStr > "" {
				exit.Log(fmt.Sprintf("%s\nConfig file line: %s", errStr, ls))
			}
			if site == nil {
				exit.Log("Site keyword wants coordinates: " + ls)
			}
			continue
		case "start":
			if errStr := parseStart(val); errStr > "" {
				exit.Log(fmt.Sprintf("%s\nConfig file line: %s", errStr, ls))
			}
			continue
		}
		exit.Log("Unrecognized line in config file: " + ls)
	}
}

func printReport(opt *outputOptions, obs []sftab.Obs,
	geom []skybright.Geom, model *skybright.Model, r *sfsolver.Result,
	dropped int) {
	if opt.headings {
		fmt.Println(versionString)
		fmt.Printf("%d observations used, %d dropped.\n",
			len(obs), dropped)
	}
	p := skybright.Params{MDark: r.X[0], KX: r.X[1]}
	if r.Cov != nil {
		fmt.Printf("m_dark %8.3f ± %.3f mag\n",
			p.MDark, math.Sqrt(r.Cov.At(0, 0)))
		fmt.Printf("k_X    %8.3f ± %.3f mag per airmass\n",
			p.KX, math.Sqrt(r.Cov.At(1, 1)))
	} else {
		fmt.Printf("m_dark %8.3f mag\n", p.MDark)
		fmt.Printf("k_X    %8.3f mag per airmass\n", p.KX)
	}
	fmt.Printf("fit: %s, %d iterations, %d evaluations.\n",
		r.Status, r.Iterations, r.Evaluations)
	fmt.Printf("rms of fit %.3f mag.\n",
		math.Sqrt(r.RSS/float64(len(obs))))
	if len(obs) >= 4 {
		q := append([]float64{}, r.Resid...)
		sort.Float64s(q)
		fmt.Printf("residual quartiles %+.3f %+.3f %+.3f\n",
			stat.Quantile(.25, stat.Empirical, q, nil),
			stat.Quantile(.5, stat.Empirical, q, nil),
			stat.Quantile(.75, stat.Empirical, q, nil))
	}
	if !opt.residuals {
		return
	}
	fmt.Println("\n      JD         RA       Dec     " +
		"mag  model  resid     X    Xm  illum    ρ")
	for i, o := range obs {
		g := geom[i]
		fmt.Printf("%13.5f  %v  %v  %6.2f %6.2f %+6.2f %5.2f %5.2f  %4.0f%%  %5.1f\n",
			o.JD, sexa.FmtRA(o.RA), sexa.FmtAngle(o.Dec), o.Mag,
			model.Sky(g, p), r.Resid[i],
			model.X(g.Z), model.X(g.Zm),
			base.Illuminated(g.Alpha)*100, g.Rho.Deg())
	}
}

func (cl *commandLine) fixupCP(fnSpec, fnDefault string) string {
	if fnSpec > "" {
		return fnSpec
	}
	return filepath.Join(cl.dp, fnDefault)
}

func printHelp() {
	fmt.Println(`
Skyfit fits the Krisciunas and Schaefer scattered moonlight model to a
table of sky brightness measurements, solving for the zenith dark sky
magnitude m_dark and the extinction coefficient k_X by nonlinear least
squares.  Input is a table of observations, one per line, with columns
JD, RA, Dec, and sky brightness in magnitudes per square arc second.
A header line may name and reorder columns.  Output is the fitted
parameters with formal errors and residual statistics.

Config file keywords:
   headings
   noheadings
   residuals
   noresiduals
   airmass=<function>
   obscode=<MPC code>
   site=<lat,lon[,height]>
   start=<mdark,kx>

Airmass functions:`)
	for _, e := range skybright.XList {
		fmt.Println("  ", e.Name)
	}
	fmt.Println(`
For full documentation:
   godoc skyfit`)
}
