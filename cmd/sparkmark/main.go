package main

import "github.com/sparkmark/sparkmark/internal/cmd"

func main() {
	cmd.Execute()
}
