// main is the entry point for the perfhist CLI.
package main

import (
	"github.com/huangsam/perfhist/cmd"
	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseCaching()

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		iocache.CloseCaching()
		contract.LogFatal("Command failed", err)
	}
}
