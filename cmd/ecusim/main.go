// Command ecusim runs the engine controller against a virtual engine and
// inspects calibrations and recorded runs.
package main

import "github.com/tebeka/atexit"

func main() {
	Execute()
	atexit.Exit(0)
}
