package main

import "github.com/mcoot/rewardroster/internal/cli"

func main() {
	cli.Execute()
}
