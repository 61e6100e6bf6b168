// radiusclient sends one RADIUS transaction from the command line.
package main

import "github.com/radiusgo/goradius/cmd/radiusclient/commands"

func main() {
	commands.Execute()
}
