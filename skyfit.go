// Public domain.

package main

import "github.com/soniakeys/skyfit/internal/sfprog"

func main() {
	sfprog.Main()
}
