package main

import "github.com/nextlevelbuilder/finch/cmd"

func main() {
	cmd.Execute()
}
