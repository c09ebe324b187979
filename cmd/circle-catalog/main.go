package main

import "github.com/pfrederiksen/circle-catalog/internal/cli"

func main() {
	cli.Execute()
}
