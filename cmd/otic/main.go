// otic identifies catalog products in camera frames by comparing colour
// fingerprints, without model training.
package main

import "github.com/jmylchreest/otic/internal/cli"

func main() {
	cli.Execute()
}
