package main

import "github.com/nexscan/nexscan-cli/cmd"

// execCmd is swappable so main stays testable.
var execCmd = cmd.Execute

func main() {
	execCmd()
}
