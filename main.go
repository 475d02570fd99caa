package main

import "github.com/commentera/commentera-api/cmd"

func main() {
	cmd.Execute()
}
