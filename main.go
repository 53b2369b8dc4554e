package main

import "github.com/cameronsjo/templer/internal/cmd"

func main() {
	cmd.Execute()
}
