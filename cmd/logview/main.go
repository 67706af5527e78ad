package main

import "github.com/charliek/logview/internal/cli"

func main() {
	cli.Execute()
}
