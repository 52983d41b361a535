package main

import "github.com/buildtall-systems/orderflow/internal/cli"

func main() {
	cli.Execute()
}
