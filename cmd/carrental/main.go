package main

import "carrental/cmd/carrental/command"

func main() {
	command.Execute()
}
