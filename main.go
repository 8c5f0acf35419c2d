package main

import "github.com/brk3/habitkit/cmd"

func main() {
	cmd.Execute()
}
