package utils

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Iamfittz/aptos-core/log"
	"github.com/Iamfittz/aptos-core/params"
)

var (
	clientIdentifier string
	gitCommit        string
	gitDate          string

	// CleanupChan is closed when the process receives a stop signal
	CleanupChan = make(chan struct{})
)

// NewApp creates an app with sane defaults.
func NewApp(identifier, gitcommit, gitdate, usage string) *cli.App {
	clientIdentifier = identifier
	gitCommit = gitcommit
	gitDate = gitdate
	app := cli.NewApp()
	app.Name = filepath.Base(os.Args[0])
	app.Version = params.VersionWithCommit(gitCommit, gitDate)
	app.Usage = usage
	return app
}

// WaitInterrupt block until a stop signal arrives
func WaitInterrupt() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signalChan
	log.Info("receive stop signal", "signal", sig)
	close(CleanupChan)
}
