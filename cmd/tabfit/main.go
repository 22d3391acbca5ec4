package main

import "github.com/YuminosukeSato/tabfit/internal/cli"

func main() {
	cli.Execute()
}
