package main

import "dramaweb/cmd"

func main() {
	cmd.Execute()
}
