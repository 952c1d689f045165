package main

import "orby/cmd"

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "v0.1.0"

func main() {
	cmd.Version = Version
	cmd.Execute()
}
