package main

import "voclip/internal/cli"

func main() {
	cli.Main()
}
