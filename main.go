package main

import "github.com/tekacs/scriptr/cmd"

func main() {
	cmd.Execute()
}
