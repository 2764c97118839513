package main

import (
	"gradewatch/cmd/gradewatch/commands"
	"gradewatch/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
