package main

import "github.com/deploymenttheory/go-sqfs/cmd"

func main() {
	cmd.Execute()
}
