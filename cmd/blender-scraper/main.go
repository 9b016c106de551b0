package main

import (
	"blender-scraper/cmd/blender-scraper/commands"
	"blender-scraper/internal/components/serviceutil"
)

func main() {
	ctx, stop := serviceutil.SignalContext()
	err := commands.ExecuteContext(ctx)
	stop()
	if err != nil {
		serviceutil.Fatal("blender-scraper failed", err)
	}
}
