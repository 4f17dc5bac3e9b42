package main

import "github.com/rafael/multichat/internal/commands"

func main() {
	commands.Execute()
}
