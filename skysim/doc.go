/*
Command skysim generates synthetic sky brightness tables for skyfit.

Usage

Command line options:

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

Operation

Observation times are drawn uniformly over the span of -days days from
-jd0, rejecting times with the sun less than 10 degrees below the
horizon.  Fields are drawn uniformly over the celestial sphere,
rejecting fields with zenith angle past -maxz.  Sky brightness at each
field is computed from the Krisciunas and Schaefer scattered moonlight
model with parameters -mdark and -kx, and gaussian noise of sigma
-noise magnitudes is added.

The default site is Mauna Kea.  Another site is specified with -site
as geographic latitude and east longitude in degrees and an optional
height in meters.

Output is a table in the format skyfit reads, columns JD, RA, Dec, and
sky brightness, with the generating parameters on a leading comment
line.  A run with -seed 0, the default, seeds the generator from the
clock and records the chosen seed on the comment line, so any table
can be reproduced.

Output takes the form

  # skysim -mdark 21.9 -kx 0.17 -noise 0.05 -seed 42
  jd, ra, dec, sky
  2460693.77321, 113.51214, 37.82223, 21.863
  2460689.20229, 207.79127, -20.12121, 20.365

with one line per observation.

-------------
Public domain.
*/
package main
