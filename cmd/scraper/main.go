package main

import (
	"nusmods-scraper/cmd/scraper/commands"
	"nusmods-scraper/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
