package main

import "github.com/pfrederiksen/perk-events/internal/cli"

func main() {
	cli.Execute()
}
