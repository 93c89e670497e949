package main

import "github.com/carematch360/portal/cmd/portal/cmd"

func main() {
	cmd.Execute()
}
