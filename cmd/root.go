/*
Package cmd implements the command-line interface of the dice agent.
*/
package cmd

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/dice-agent/pkg/logging"
	"github.com/theapemachine/dice-agent/pkg/utils"
)

/*
Embed a mini filesystem into the binary to hold the default config file.
It is written to the home directory of the user running the agent, so
the defaults can be edited there.
*/
//go:embed cfg/*
var embedded embed.FS

var (
	projectName = "dice-agent"
	cfgFile     string
	verbose     bool

	rootCmd = &cobra.Command{
		Use:   projectName,
		Short: "An A2A agent that rolls dice",
		Long:  longRoot,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Configure(viper.GetString("log.level"), verbose)
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yml",
		"config file (default is $HOME/."+projectName+"/config.yml)",
	)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging with caller information")
}

/*
initConfig writes the default config file to the user's config directory
if it is missing, then reads it. Environment variables prefixed with
DICE_AGENT_ override file values.
*/
func initConfig() {
	if err := writeConfig(); err != nil {
		log.Fatal("failed to write config", "error", err)
	}

	viper.SetConfigName(strings.TrimSuffix(cfgFile, filepath.Ext(cfgFile)))
	viper.SetConfigType("yml")
	viper.AddConfigPath(configDir())

	viper.SetEnvPrefix("DICE_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatal("failed to read config", "error", err)
	}
}

func configDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+projectName)
}

/*
writeConfig copies the embedded defaults into the config directory,
never overwriting a file that already exists.
*/
func writeConfig() (err error) {
	var (
		dir = configDir()
		fh  fs.File
		buf bytes.Buffer
	)

	if !utils.CheckFileExists(dir) {
		if err = os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	fullPath := filepath.Join(dir, cfgFile)

	if utils.CheckFileExists(fullPath) {
		return nil
	}

	if fh, err = embedded.Open("cfg/config.yml"); err != nil {
		return fmt.Errorf("failed to open embedded config file: %w", err)
	}

	defer fh.Close()

	if _, err = io.Copy(&buf, fh); err != nil {
		return fmt.Errorf("failed to read embedded config file: %w", err)
	}

	if err = os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info("wrote config file", "path", fullPath)

	return nil
}

var longRoot = `
dice-agent serves an Agent-to-Agent (A2A) task endpoint backed by a
language model that can roll dice, and ships an interactive client to
talk to it.
`
