package main

import "github.com/wawengkz/INVENT/cli"

func main() {
	cli.Execute()
}
