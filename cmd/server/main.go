package main

import "github.com/yukikurage/daily-task-api/internal/cli"

func main() {
	cli.Execute()
}
