package main

import "github.com/mcoot/playersession/internal/cli"

func main() {
	cli.Execute()
}
