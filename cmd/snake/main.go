package main

import "github.com/MeKo-Tech/snake/cmd/snake/cmd"

func main() {
	cmd.Execute()
}
