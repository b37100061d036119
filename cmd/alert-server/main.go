package main

import "github.com/oshokin/alert-broadcast/cmd/alert-server/cmd"

func main() {
	cmd.Execute()
}
