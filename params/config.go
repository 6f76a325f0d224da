package params

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/Iamfittz/aptos-core/log"
)

const defaultAPIPort = 8080

var (
	nodeConfig        *NodeConfig
	loadConfigStarter sync.Once
)

// NodeConfig config items (decode from toml file)
type NodeConfig struct {
	Identifier string
	APIServer  *APIServerConfig
	StateDB    *StateDBConfig
	Engine     *EngineConfig  `toml:",omitempty" json:",omitempty"`
	Layouts    *LayoutsConfig `toml:",omitempty" json:",omitempty"`
}

// APIServerConfig api service config
type APIServerConfig struct {
	Port             int
	AllowedOrigins   []string
	MaxRequestsLimit int
}

// StateDBConfig local versioned store config
type StateDBConfig struct {
	Path     string
	Cache    int
	Handles  int
	ReadOnly bool
}

// EngineConfig value resolution engine config
type EngineConfig struct {
	AddressWidth int `toml:",omitempty" json:",omitempty"` // 16 or 32 bytes, default 16
	MaxTypeDepth int `toml:",omitempty" json:",omitempty"`
}

// LayoutsConfig struct layout metadata sources
type LayoutsConfig struct {
	Dir           string `toml:",omitempty" json:",omitempty"` // fixture dir, hot reloaded
	WatchDir      bool   `toml:",omitempty" json:",omitempty"`
	RemoteURL     string `toml:",omitempty" json:",omitempty"` // peer node base URL
	RemoteTimeout int    `toml:",omitempty" json:",omitempty"` // seconds
}

// GetConfig get node config
func GetConfig() *NodeConfig {
	return nodeConfig
}

// SetConfig set node config
func SetConfig(config *NodeConfig) {
	nodeConfig = config
}

// GetAPIPort get api service port
func GetAPIPort() int {
	apiPort := GetConfig().APIServer.Port
	if apiPort == 0 {
		apiPort = defaultAPIPort
	}
	return apiPort
}

// GetIdentifier get identifier
func GetIdentifier() string {
	return GetConfig().Identifier
}

// GetEngineConfig get engine config (never nil)
func GetEngineConfig() *EngineConfig {
	if config := GetConfig().Engine; config != nil {
		return config
	}
	return &EngineConfig{}
}

// GetLayoutsConfig get layouts config (may be nil)
func GetLayoutsConfig() *LayoutsConfig {
	return GetConfig().Layouts
}

// LoadConfig load config
func LoadConfig(configFile string) *NodeConfig {
	loadConfigStarter.Do(func() {
		if configFile == "" {
			log.Fatalf("LoadConfig error: no config file specified")
		}
		log.Println("Config file is", configFile)
		if _, err := os.Stat(configFile); err != nil {
			log.Fatalf("LoadConfig error: config file %v not exist", configFile)
		}
		config := &NodeConfig{}
		if _, err := toml.DecodeFile(configFile, &config); err != nil {
			log.Fatalf("LoadConfig error (toml DecodeFile): %v", err)
		}

		SetConfig(config)
		bs, _ := json.MarshalIndent(config, "", "  ")
		log.Println("LoadConfig finished.", string(bs))
		if err := CheckConfig(); err != nil {
			log.Fatalf("Check config failed. %v", err)
		}
		log.Info("Check config success", "configFile", configFile)
	})
	return nodeConfig
}
