package main

import "github.com/eneq/misc/cmd"

func main() {
	cmd.Execute()
}
