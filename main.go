package main

import "github.com/fakeyudi/allot/cmd"

func main() {
	cmd.Execute()
}
