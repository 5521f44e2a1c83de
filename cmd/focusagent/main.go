package main

import "github.com/focusagent/focusagent/internal/cmd"

func main() {
	cmd.Execute()
}
