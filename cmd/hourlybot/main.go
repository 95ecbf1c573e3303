package main

import "github.com/SsToRR/HourlyBot/cmd/hourlybot/commands"

func main() {
	commands.Execute()
}
