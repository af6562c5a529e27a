package main

import "github.com/animus-coder/testgen/internal/cli"

func main() {
	cli.Execute()
}
