package main

import "github.com/jcgs2503/vestbridge/internal/cli"

func main() {
	cli.Execute()
}
