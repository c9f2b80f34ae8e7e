package main

import "github.com/ossrange/repoaudit/cmd"

func main() {
	cmd.Execute()
}
