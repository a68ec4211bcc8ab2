package main

import "github.com/pfrederiksen/seminar-cal/internal/cli"

func main() {
	cli.Execute()
}
