package main

import "github.com/oshokin/alert-broadcast/cmd/alert-button/cmd"

func main() {
	cmd.Execute()
}
