package main

import "github.com/josephlewis42/cash/cmd"

func main() {
	cmd.Execute()
}
