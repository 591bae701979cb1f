package main

import "mspro-labs/brew-map/cmd"

func main() {
	cmd.Execute()
}
