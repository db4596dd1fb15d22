// main is the entry point for the osuawa CLI.
package main

import (
	"github.com/bobbycyl/osuawa/cmd"
	"github.com/bobbycyl/osuawa/internal/contract"
	"github.com/bobbycyl/osuawa/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute()
	iocache.CloseStores()
	if err != nil {
		contract.LogFatal("Error", err)
	}
}
