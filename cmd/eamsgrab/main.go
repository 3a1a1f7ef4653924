package main

import (
	_ "time/tzdata"

	"eamsgrab/cmd/eamsgrab/commands"
	"eamsgrab/internal/components/osutil"
)

func main() {
	ctx, cancel := osutil.SignalContext()
	defer cancel()
	commands.ExecuteContext(ctx)
}
