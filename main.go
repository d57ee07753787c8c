package main

import "github.com/klytics/sheetsplit/cmd"

func main() {
	cmd.Execute()
}
