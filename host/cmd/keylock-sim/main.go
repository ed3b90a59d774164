// Command keylock-sim runs the lock firmware against a simulated keypad.
package main

import "keylock/host/cmd/keylock-sim/cmd"

func main() {
	cmd.Execute()
}
