// schedulerctl is a CLI client for schedulerd's JSON status endpoints.
package main

import "github.com/mpsched/mpsched/cmd/schedulerctl/commands"

func main() {
	commands.Execute()
}
