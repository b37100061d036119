package main

import "github.com/oshokin/alert-broadcast/cmd/alert-monitor/cmd"

func main() {
	cmd.Execute()
}
