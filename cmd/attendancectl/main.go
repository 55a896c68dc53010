package main

import "github.com/CentZek/newesthr-sub000/internal/cli"

func main() {
	cli.Execute()
}
