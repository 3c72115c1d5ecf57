package main

import "github.com/krishkalaria12/snapvault/cmd"

func main() {
	cmd.Execute()
}
