package main

import "github.com/tmacro/numix-cursor-hidpi/cmd"

func main() {
	cmd.Execute()
}
