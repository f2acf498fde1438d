package main

import "github.com/dgallion1/guideparse/internal/cli"

func main() {
	cli.Execute()
}
