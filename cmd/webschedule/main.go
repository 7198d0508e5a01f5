package main

import "github.com/webscheduleplus/webschedule/internal/cli"

func main() {
	cli.Execute()
}
