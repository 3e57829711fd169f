package main

import "github.com/gobores/gobores/cmd"

func main() {
	cmd.Execute()
}
