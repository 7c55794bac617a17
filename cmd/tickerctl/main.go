package main

import "github.com/MattLD13/tickerctl/internal/cli"

func main() {
	cli.Execute()
}
