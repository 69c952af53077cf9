package main

import "github.com/shelfmates/bookshelf/cli"

func main() {
	cli.Execute()
}
