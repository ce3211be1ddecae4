/*
Command skyfit fits a scattered moonlight model to night sky brightness
measurements.

Contents

Version 0.1

  Program overview
  Installing from the Internet
  Command line usage
  Configuring file locations
  Observation table format
  Config file format
  Algorithm outline
  References

Program overview

Input is a table of sky brightness measurements, one line per
measurement, with the time as a Julian date, the equatorial coordinates
of the measured field, and the measured brightness in V magnitudes per
square arc second.  Output is the fitted zenith dark sky magnitude
m_dark and extinction coefficient k_X, with formal errors and residual
statistics.

The fit is to the scattered moonlight model of Krisciunas and Schaefer.
The model predicts sky brightness in a field from the lunar phase, the
separation of the field from the moon, and the airmasses of field and
moon.  Given measured brightness over a range of those conditions, the
two site parameters of the model can be recovered by nonlinear least
squares.  All the viewing geometry is computed from the time, the
field coordinates, and the observing site, so the input table needs no
columns beyond the four above.

You put measurements in a file, say night.obs, then type
"skyfit night.obs" and get output like,

  skyfit version 0.1 Go source.
  42 observations used, 1 dropped.
  m_dark   21.903 ± 0.012 mag
  k_X       0.168 ± 0.008 mag per airmass
  fit: gradient within tolerance, 9 iterations, 21 evaluations.
  rms of fit 0.047 mag.
  residual quartiles -0.030 +0.002 +0.029

The formal errors come from the curvature of the fit and mean little
if measurements cover only a narrow range of lunar conditions.  A fit
from a single bright night, for example, constrains m_dark poorly no
matter how small its formal error, because moonlight then dominates
every field.  Spreading measurements over phases and separations is
worth more than piling them up on one night.

The residuals keyword in the config file adds a table of the
observations with modeled brightness, residuals, airmasses, lunar
illumination, and moon separation, one line per observation.

Command skysim, included in the skyfit source repository, generates
synthetic observation tables for trying out the program.

Installing from the Internet

You need a Go toolchain.  If you are new to Go, see
https://golang.org/doc/install.  Then type

    go install github.com/soniakeys/skyfit@latest

and, if you want the table generator as well,

    go install github.com/soniakeys/skyfit/skysim@latest

Command line usage

Invoking the program without command line arguments (or with invalid
arguments) shows this usage prompt.

  Usage: skyfit [options] <obsfile>    fit sky brightness in file
         skyfit [options] -            fit sky brightness from stdin
         skyfit -h                     display help and quick reference
         skyfit -v                     display version and copyright

  Options:
         -c <config-file>
         -o <obscode-file>
         -s <site>
         -p <path>

The -s option specifies the observing site and overrides any site in
the config file.  It takes either an MPC observatory code, as in
-s 568, or geographic coordinates as latitude and east longitude in
degrees with an optional height in meters, as in -s "19.8,-155.5,4205".
The default site is obscode 568, Mauna Kea.

Configuring file locations

Skyfit uses two auxiliary files, an obscode file holding the MPC
observatory list, and an optional config file.  The default names are
skyfit.obscodes and skyfit.config and the default location for both is
the skyfit source directory if it can be determined, otherwise the
current directory.  The -p option sets the location for both files.
The -o and -c options give the obscode and config files individually,
as a full path or as a file name relative to the -p location.

If the obscode file is missing or unreadable, skyfit attempts to
download a fresh copy from the Minor Planet Center to the obscode file
location.  A site given as geographic coordinates needs no obscode
file at all.

Observation table format

The table is plain text, one observation per line.  Fields are
separated by commas or by whitespace.  Blank lines and lines beginning
with # are ignored.  Without a header line, columns are taken in the
order JD, RA, Dec, brightness.  A first line with any non-numeric
field is taken as a header naming the columns: jd, ra, dec, and any of
sky, sb, or mag, in any order, letter case and trailing parenthesized
units ignored.  Extra columns are ignored.  RA and Dec are in degrees,
brightness in V magnitudes per square arc second.

Lines that fail to parse, or with a nonpositive JD or a declination
off the sphere, are dropped; the report shows the count of dropped
lines.

Config file format

The config file holds one keyword per line.  Lines beginning with #
are comments.  Keywords are

  headings
  noheadings
  residuals
  noresiduals
  airmass=<function>
  obscode=<MPC code>
  site=<lat,lon[,height]>
  start=<mdark,kx>

The airmass keyword selects the airmass function applied to field and
moon.  Function ks is the Krisciunas and Schaefer form, optically
reasonable to a little past 90° but turning over beyond that as the
formula leaves its derivation.  Function clamped is the same form with
zenith angles of 90° or more pinned to the value at the horizon, for
tables that carry fields or moon positions well below the horizon.
The default is ks.

The start keyword gives starting values for the two parameters.  The
default start is 21.5, 0.2, which converges for any plausible data.

Algorithm outline

1.  The observation table is read and dubious lines dropped.

2.  For each observation, the positions of the moon and sun are
computed by the methods of Meeus.  The moon's place is corrected for
parallax at the observing site.  From these come the lunar phase
angle, the separation of field from moon, and the zenith angles of
field and moon.

3.  The Krisciunas and Schaefer model gives the moonlight scattered
into the field from the phase angle, separation, and the two
airmasses, and adds it to the dark sky brightness corresponding to
m_dark.  The combined brightness is expressed as a magnitude.

4.  Model parameters are adjusted to minimize the sum of squared
magnitude residuals by the Levenberg-Marquardt method, with a finite
difference Jacobian.  Formal errors are square roots of the diagonal
of the parameter covariance, the inverse normal matrix scaled by the
residual variance.

5.  The fit and residual statistics are reported.  Nothing is written
to any file.

References

Krisciunas, K., and Schaefer, B. E., "A model of the brightness of
moonlight," Publications of the Astronomical Society of the Pacific
103, 1033 (1991).

Meeus, J., Astronomical Algorithms, second edition, Willmann-Bell
(1998).

Madsen, K., Nielsen, H. B., and Tingleff, O., "Methods for Non-Linear
Least Squares Problems," IMM, Technical University of Denmark (2004).

-------------
Public domain.
*/
package main
