package commands

import (
	"github.com/mosaicnetworks/synapse/src/config"
	"github.com/spf13/cobra"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for Synapse
var RootCmd = &cobra.Command{
	Use:              "synapse",
	Short:            "synapse network animation engine",
	TraverseChildren: true,
}
