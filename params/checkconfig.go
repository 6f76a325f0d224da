package params

import (
	"errors"

	"github.com/Iamfittz/aptos-core/common"
)

// CheckConfig check config
func CheckConfig() (err error) {
	config := GetConfig()
	if config.Identifier == "" {
		return errors.New("must config non empty 'Identifier'")
	}
	if config.APIServer == nil {
		return errors.New("must config 'APIServer'")
	}
	if config.StateDB == nil {
		return errors.New("must config 'StateDB'")
	}
	if config.StateDB.Path == "" {
		return errors.New("must config non empty 'StateDB.Path'")
	}
	if err = checkEngineConfig(config.Engine); err != nil {
		return err
	}
	return checkLayoutsConfig(config.Layouts)
}

func checkEngineConfig(config *EngineConfig) error {
	if config == nil {
		return nil
	}
	switch config.AddressWidth {
	case 0, common.AddressWidth16, common.AddressWidth32:
	default:
		return errors.New("'Engine.AddressWidth' must be 16 or 32")
	}
	if config.MaxTypeDepth < 0 {
		return errors.New("'Engine.MaxTypeDepth' must not be negative")
	}
	return nil
}

func checkLayoutsConfig(config *LayoutsConfig) error {
	if config == nil {
		return nil
	}
	if config.WatchDir && config.Dir == "" {
		return errors.New("'Layouts.WatchDir' requires 'Layouts.Dir'")
	}
	if config.RemoteTimeout < 0 {
		return errors.New("'Layouts.RemoteTimeout' must not be negative")
	}
	return nil
}
