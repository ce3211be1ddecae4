// Public domain.

// Package sftab reads tables of sky brightness observations.
package sftab

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/soniakeys/unit"
)

// Obs is a single sky brightness observation.
type Obs struct {
	JD  float64    // Julian date of the observation
	RA  unit.RA    // right ascension of the observed field
	Dec unit.Angle // declination of the observed field
	Mag float64    // measured sky brightness, mag/arcsec²
}

// column names recognized in a header line, by Obs field order
var colNames = map[string]int{
	"jd":  0,
	"ra":  1,
	"dec": 2,
	"mag": 3,
	"sky": 3,
	"sb":  3,
}

var reqName = [4]string{"jd", "ra", "dec", "sky brightness"}

// Read parses a table of observations.
//
// Fields are separated by commas or by whitespace.  Blank lines and
// lines beginning with # are skipped.  If the first remaining line does
// not parse as numbers it is taken as a header naming the columns jd,
// ra, dec and mag (or sky, or sb) in any order, with extra columns
// ignored.  Without a header the first four columns are jd, ra, dec and
// mag.  RA and Dec are decimal degrees.
//
// Data rows that fail to parse are dropped and counted, not returned as
// errors.
func Read(r io.Reader) (obs []Obs, dropped int, err error) {
	col := []int{0, 1, 2, 3}
	first := true
	scn := bufio.NewScanner(r)
	for scn.Scan() {
		line := strings.TrimSpace(scn.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		f := splitRow(line)
		if first {
			first = false
			hdr, isHeader, hdrErr := headerColumns(f)
			if hdrErr != nil {
				return nil, 0, hdrErr
			}
			if isHeader {
				col = hdr
				continue
			}
		}
		o, ok := parseRow(f, col)
		if !ok {
			dropped++
			continue
		}
		obs = append(obs, o)
	}
	if err = scn.Err(); err != nil {
		return nil, 0, err
	}
	return obs, dropped, nil
}

// headerColumns interprets f as a line of column names.  A line on
// which every field parses as a number is not a header.
func headerColumns(f []string) (col []int, isHeader bool, err error) {
	isHeader = false
	for _, s := range f {
		if _, e := strconv.ParseFloat(s, 64); e != nil {
			isHeader = true
			break
		}
	}
	if !isHeader {
		return nil, false, nil
	}
	col = []int{-1, -1, -1, -1}
	for i, s := range f {
		if x, ok := colNames[colKey(s)]; ok && col[x] < 0 {
			col[x] = i
		}
	}
	for x, c := range col {
		if c < 0 {
			return nil, true, fmt.Errorf("Read: header missing a %s column",
				reqName[x])
		}
	}
	return col, true, nil
}

// colKey normalizes a header field for lookup, folding case and cutting
// any bracketed unit, so "RA(deg)" names the ra column.
func colKey(s string) string {
	if i := strings.IndexAny(s, "(["); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}

func splitRow(s string) []string {
	if strings.ContainsRune(s, ',') {
		f := strings.Split(s, ",")
		for i, w := range f {
			f[i] = strings.TrimSpace(w)
		}
		return f
	}
	return strings.Fields(s)
}

func parseRow(f []string, col []int) (o Obs, ok bool) {
	var v [4]float64
	for i, c := range col {
		if c >= len(f) {
			return
		}
		x, err := strconv.ParseFloat(f[c], 64)
		if err != nil {
			return
		}
		v[i] = x
	}
	// a Julian date of zero or less, or a declination off the sphere,
	// marks a corrupt row
	if v[0] <= 0 || math.Abs(v[2]) > 90 {
		return
	}
	o = Obs{
		JD:  v[0],
		RA:  unit.RA(unit.AngleFromDeg(v[1])),
		Dec: unit.AngleFromDeg(v[2]),
		Mag: v[3],
	}
	return o, true
}
