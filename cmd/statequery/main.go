package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/Iamfittz/aptos-core/cmd/utils"
	"github.com/Iamfittz/aptos-core/common"
	"github.com/Iamfittz/aptos-core/internal/stateapi"
	"github.com/Iamfittz/aptos-core/leveldb"
	"github.com/Iamfittz/aptos-core/log"
	"github.com/Iamfittz/aptos-core/params"
	"github.com/Iamfittz/aptos-core/rpc/client"
	rpcserver "github.com/Iamfittz/aptos-core/rpc/server"
	"github.com/Iamfittz/aptos-core/state"
)

var (
	clientIdentifier = "statequery"
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
	// The app that holds all commands and flags.
	app = utils.NewApp(clientIdentifier, gitCommit, gitDate, "the versioned ledger state query service")
)

func initApp() {
	// Initialize the CLI app and start action
	app.Action = statequery
	app.HideVersion = true // we have a command to print the version
	app.Commands = []*cli.Command{
		utils.VersionCommand,
	}
	app.Flags = []cli.Flag{
		utils.ConfigFileFlag,
		utils.LogFileFlag,
		utils.LogRotationFlag,
		utils.LogMaxAgeFlag,
		utils.VerbosityFlag,
		utils.JSONFormatFlag,
		utils.ColorFormatFlag,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
}

func main() {
	initApp()
	if err := app.Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func statequery(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	if ctx.NArg() > 0 {
		return fmt.Errorf("invalid command: %q", ctx.Args().Get(0))
	}
	configFile := utils.GetConfigFilePath(ctx)
	config := params.LoadConfig(configFile)

	engineConfig := params.GetEngineConfig()
	if engineConfig.AddressWidth != 0 {
		if err := common.SetAddressWidth(engineConfig.AddressWidth); err != nil {
			return err
		}
	}

	dbConfig := config.StateDB
	db, err := leveldb.New(dbConfig.Path, dbConfig.Cache, dbConfig.Handles, dbConfig.ReadOnly)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	sdb, err := state.NewStateDB(db)
	if err != nil {
		return err
	}
	log.Info("opened state store", "path", dbConfig.Path, "latestVersion", sdb.LatestVersion())

	source, err := buildLayoutSource(sdb)
	if err != nil {
		return err
	}
	resolver := state.NewResolver(sdb, state.NewCachedLayoutResolver(source), engineConfig.MaxTypeDepth)
	stateapi.Init(resolver)

	rpcserver.StartAPIServer()
	utils.WaitInterrupt()
	return nil
}

// buildLayoutSource chain the configured layout sources: fixture dir
// first, then the local store, then a peer node.
func buildLayoutSource(sdb *state.StateDB) (state.LayoutSource, error) {
	chain := state.ChainedLayoutSource{}
	layoutsConfig := params.GetLayoutsConfig()
	if layoutsConfig != nil && layoutsConfig.Dir != "" {
		dirSource, err := state.NewDirLayoutSource(layoutsConfig.Dir)
		if err != nil {
			return nil, err
		}
		if layoutsConfig.WatchDir {
			if err := dirSource.Watch(utils.CleanupChan); err != nil {
				return nil, err
			}
		}
		chain = append(chain, dirSource)
	}
	chain = append(chain, state.NewStoreLayoutSource(sdb))
	if layoutsConfig != nil && layoutsConfig.RemoteURL != "" {
		client.SetTimeout(layoutsConfig.RemoteTimeout)
		chain = append(chain, state.NewRemoteLayoutSource(layoutsConfig.RemoteURL))
	}
	return chain, nil
}
