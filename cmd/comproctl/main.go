package main

import "github.com/kreasi-nusantara/compro/cmd/comproctl/commands"

func main() {
	commands.Execute()
}
