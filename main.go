package main

import "github.com/dotcommander/provscore/cmd"

func main() {
	cmd.Execute()
}
