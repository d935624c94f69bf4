package main

import "github.com/cmmoran/pbmodelgen/cmd"

func main() {
	cmd.Execute()
}
