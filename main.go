package main

import "github.com/jroman/agencydir/cmd"

func main() {
	cmd.Execute()
}
