package main

import "github.com/mkarppi/sketchparty/internal/cli"

func main() {
	cli.Execute()
}
