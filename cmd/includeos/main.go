package main

import "includeos/cmd/includeos/cmd"

func main() {
	cmd.Execute()
}
