package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Iamfittz/aptos-core/cmd/utils"
	"github.com/Iamfittz/aptos-core/common"
	"github.com/Iamfittz/aptos-core/leveldb"
	"github.com/Iamfittz/aptos-core/log"
	"github.com/Iamfittz/aptos-core/move"
	"github.com/Iamfittz/aptos-core/params"
	"github.com/Iamfittz/aptos-core/state"
)

var (
	clientIdentifier = "stateimport"
	gitCommit        = ""
	gitDate          = ""
	app              = utils.NewApp(clientIdentifier, gitCommit, gitDate, "import a JSON state dump into the local state store")

	inputFlag = &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "Specify state dump file to import",
		Required: true,
	}
)

// stateDump is the import file format: one commit at one version
type stateDump struct {
	Version    uint64               `json:"version"`
	Layouts    []state.LayoutRecord `json:"layouts,omitempty"`
	Resources  []resourceDump       `json:"resources,omitempty"`
	Modules    []moduleDump         `json:"modules,omitempty"`
	TableItems []tableItemDump      `json:"table_items,omitempty"`
}

type resourceDump struct {
	Address string          `json:"address"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
}

type moduleDump struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Bytecode string `json:"bytecode"`
}

type tableItemDump struct {
	Handle    string          `json:"handle"`
	KeyType   string          `json:"key_type"`
	ValueType string          `json:"value_type"`
	Key       json.RawMessage `json:"key"`
	Value     json.RawMessage `json:"value"`
}

func initApp() {
	app.Action = stateimport
	app.HideVersion = true
	app.Commands = []*cli.Command{
		utils.VersionCommand,
	}
	app.Flags = []cli.Flag{
		utils.ConfigFileFlag,
		inputFlag,
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

func stateimport(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	config := params.LoadConfig(utils.GetConfigFilePath(ctx))

	engineConfig := params.GetEngineConfig()
	if engineConfig.AddressWidth != 0 {
		if err := common.SetAddressWidth(engineConfig.AddressWidth); err != nil {
			return err
		}
	}

	raw, err := os.ReadFile(ctx.String(inputFlag.Name))
	if err != nil {
		return err
	}
	var dump stateDump
	if err := json.Unmarshal(raw, &dump); err != nil {
		return fmt.Errorf("malformed state dump: %w", err)
	}

	dbConfig := config.StateDB
	db, err := leveldb.New(dbConfig.Path, dbConfig.Cache, dbConfig.Handles, false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	sdb, err := state.NewStateDB(db)
	if err != nil {
		return err
	}

	writes, err := buildWrites(sdb, &dump)
	if err != nil {
		return err
	}
	if err := sdb.Commit(dump.Version, writes); err != nil {
		return err
	}
	log.Info("state dump imported", "version", dump.Version, "writes", len(writes))
	return nil
}

func buildWrites(sdb *state.StateDB, dump *stateDump) ([]state.KeyValue, error) {
	// layouts of this dump must be visible while encoding its values
	dumpLayouts := make(mapLayoutSource)
	writes := make([]state.KeyValue, 0, len(dump.Layouts)+len(dump.Resources)+len(dump.Modules)+len(dump.TableItems))

	for i := range dump.Layouts {
		record := dump.Layouts[i]
		st, layout, err := parseLayout(&record)
		if err != nil {
			return nil, err
		}
		dumpLayouts[st.Key()] = layout
		value, err := json.Marshal(&record)
		if err != nil {
			return nil, err
		}
		writes = append(writes, state.KeyValue{
			Key:   state.LayoutKey(st.Address, st.Module, st.Name),
			Value: value,
		})
	}

	source := state.ChainedLayoutSource{dumpLayouts, state.NewStoreLayoutSource(sdb)}
	resolver := state.NewResolver(sdb, state.NewCachedLayoutResolver(source), params.GetEngineConfig().MaxTypeDepth)
	codec := resolver.CodecAt(state.LatestVersion)

	for _, res := range dump.Resources {
		addr, err := common.ParseAddress(res.Address)
		if err != nil {
			return nil, err
		}
		tag, err := move.ParseTypeTag(res.Type)
		if err != nil {
			return nil, err
		}
		st, ok := tag.(*move.StructTag)
		if !ok {
			return nil, fmt.Errorf("resource type %v is not a struct tag", res.Type)
		}
		value, err := codec.Encode(st, res.Data)
		if err != nil {
			return nil, fmt.Errorf("encode resource %v: %w", res.Type, err)
		}
		writes = append(writes, state.KeyValue{Key: state.ResourceKey(addr, st), Value: value})
	}

	for _, mod := range dump.Modules {
		addr, err := common.ParseAddress(mod.Address)
		if err != nil {
			return nil, err
		}
		bytecode, err := hex.DecodeString(strings.TrimPrefix(mod.Bytecode, "0x"))
		if err != nil {
			return nil, fmt.Errorf("module %v bytecode is not hex: %w", mod.Name, err)
		}
		writes = append(writes, state.KeyValue{Key: state.ModuleKey(addr, mod.Name), Value: bytecode})
	}

	for _, item := range dump.TableItems {
		handle, err := state.ParseTableHandle(item.Handle)
		if err != nil {
			return nil, err
		}
		keyType, err := move.ParseTypeTag(item.KeyType)
		if err != nil {
			return nil, err
		}
		valueType, err := move.ParseTypeTag(item.ValueType)
		if err != nil {
			return nil, err
		}
		keyBytes, err := codec.Encode(keyType, item.Key)
		if err != nil {
			return nil, fmt.Errorf("encode table key %v: %w", string(item.Key), err)
		}
		valueBytes, err := codec.Encode(valueType, item.Value)
		if err != nil {
			return nil, fmt.Errorf("encode table value %v: %w", string(item.Value), err)
		}
		writes = append(writes, state.KeyValue{Key: state.TableItemKey(handle, keyBytes), Value: valueBytes})
	}
	return writes, nil
}

func parseLayout(record *state.LayoutRecord) (*move.StructTag, *move.StructLayout, error) {
	tag, err := move.ParseTypeTag(record.StructTag)
	if err != nil {
		return nil, nil, err
	}
	st, ok := tag.(*move.StructTag)
	if !ok {
		return nil, nil, fmt.Errorf("layout %v is not a struct tag", record.StructTag)
	}
	layout, err := record.Layout()
	if err != nil {
		return nil, nil, err
	}
	return st, layout, nil
}

// mapLayoutSource serves the layouts declared by the dump itself
type mapLayoutSource map[string]*move.StructLayout

func (m mapLayoutSource) FetchLayout(st *move.StructTag, version state.Version) (*move.StructLayout, error) {
	layout, ok := m[st.Key()]
	if !ok {
		return nil, &state.NotFoundError{Kind: state.KindStructLayout, What: st.Key(), Version: version}
	}
	return layout, nil
}
