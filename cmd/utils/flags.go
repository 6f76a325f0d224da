package utils

import (
	"github.com/urfave/cli/v2"

	"github.com/Iamfittz/aptos-core/log"
)

var (
	// ConfigFileFlag specify config file
	ConfigFileFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Specify config file",
	}
	// LogFileFlag specify log file, support rotate
	LogFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Specify log file, support rotate",
	}
	// LogRotationFlag rotate log file every duration
	LogRotationFlag = &cli.Uint64Flag{
		Name:  "log.rotate",
		Usage: "Rotate log file every duration (hours)",
		Value: 24,
	}
	// LogMaxAgeFlag remove rotated logs older than duration
	LogMaxAgeFlag = &cli.Uint64Flag{
		Name:  "log.maxage",
		Usage: "Remove rotated logs older than duration (hours)",
		Value: 720,
	}
	// VerbosityFlag log verbosity
	VerbosityFlag = &cli.Uint64Flag{
		Name:    "verbosity",
		Aliases: []string{"v"},
		Usage:   "log verbosity (0:panic, 1:fatal, 2:error, 3:warn, 4:info, 5:debug, 6:trace)",
		Value:   4,
	}
	// JSONFormatFlag output log in json format
	JSONFormatFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "output log in json format",
	}
	// ColorFormatFlag output log in color text format
	ColorFormatFlag = &cli.BoolFlag{
		Name:  "color",
		Usage: "output log in color text format",
		Value: true,
	}
)

// SetLogger set logger from cli flags
func SetLogger(ctx *cli.Context) {
	logLevel := ctx.Uint64(VerbosityFlag.Name)
	jsonFormat := ctx.Bool(JSONFormatFlag.Name)
	colorFormat := ctx.Bool(ColorFormatFlag.Name)
	log.SetLogger(uint32(logLevel), jsonFormat, colorFormat)

	logFile := ctx.String(LogFileFlag.Name)
	if logFile != "" {
		logRotation := ctx.Uint64(LogRotationFlag.Name)
		logMaxAge := ctx.Uint64(LogMaxAgeFlag.Name)
		log.SetLogFile(logFile, logRotation, logMaxAge)
	}
}

// GetConfigFilePath get config file path from cli flags
func GetConfigFilePath(ctx *cli.Context) string {
	return ctx.String(ConfigFileFlag.Name)
}
