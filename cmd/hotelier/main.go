package main

import "github.com/example/hotelier/cmd"

func main() {
	cmd.Execute()
}
