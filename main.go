package main

import "github.com/KaramelBytes/metaclean/cmd"

func main() {
	cmd.Execute()
}
