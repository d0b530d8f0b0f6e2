package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/config"
	"github.com/mpdev-io/mpdev/pkg/errors"
	"github.com/mpdev-io/mpdev/pkg/tool"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	stdin           io.Reader = os.Stdin
	parseUserConfig           = config.ParseUser
	writeUserConfig           = config.WriteUser
	resolveTool               = tool.Resolve
	checkToolVer              = tool.CheckVersion
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the mpdev user configuration",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&cliOpts.Port, "port", "",
		"Set the serial port in the config. "+
			"Optional: If not set, `mpdev config` will interactively prompt.")
	cmd.Flags().IntVar(&cliOpts.BaudRate, "baudrate", 0,
		"Set the baud rate in the config. "+
			"Optional: If not set, `mpdev config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Tool, "tool", "",
		"Override the path to the device control tool. Optional.")
	cmd.Flags().StringVar(&cliOpts.Project, "project", "",
		"Set the default project directory. Optional.")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-port",
			short: "Get the currently configured serial port",
			fn:    func(cfg config.User) string { return cfg.Port },
		},
		{
			use:   "get-baudrate",
			short: "Get the currently configured baud rate",
			fn:    func(cfg config.User) string { return strconv.Itoa(cfg.BaudRate) },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig writes the user config, prompting for any field not supplied
// on the command line.
func SetupConfig(cliOpts config.User) error {
	cfg, err := generateConfig(cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	// Warn early when the tool isn't usable, but still write the config:
	// the user might be installing the tool next.
	if toolPath, err := resolveTool(cfg.Tool); err != nil {
		fmt.Fprintf(stdout, "Warning: %s\n", err)
	} else if err := checkToolVer(toolPath); err != nil {
		log.WithError(err).Warn("Device tool version check failed")
	}

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := config.GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

func generateConfig(cliOpts config.User) (config.User, error) {
	cfg := cliOpts

	// Existing values become the prompt defaults.
	if existing, err := parseUserConfig(); err == nil {
		if cfg.Port == "" {
			cfg.Port = existing.Port
		}
		if cfg.BaudRate == 0 {
			cfg.BaudRate = existing.BaudRate
		}
		if cfg.Tool == "" {
			cfg.Tool = existing.Tool
		}
		if cfg.Project == "" {
			cfg.Project = existing.Project
		}
	}

	reader := bufio.NewReader(stdin)
	if cliOpts.Port == "" {
		defaultPort := cfg.Port
		if defaultPort == "" {
			defaultPort = config.AutoPort
		}

		port, err := prompt(reader, fmt.Sprintf(
			"Serial port of the board [%s]: ", defaultPort))
		if err != nil {
			return config.User{}, err
		}
		if port == "" {
			port = defaultPort
		}
		cfg.Port = port
	}

	if cliOpts.BaudRate == 0 {
		defaultBaud := cfg.BaudRate
		if defaultBaud == 0 {
			defaultBaud = config.DefaultBaudRate
		}

		answer, err := prompt(reader, fmt.Sprintf("Baud rate [%d]: ", defaultBaud))
		if err != nil {
			return config.User{}, err
		}
		if answer == "" {
			cfg.BaudRate = defaultBaud
		} else {
			baud, err := strconv.Atoi(answer)
			if err != nil {
				return config.User{}, errors.NewFriendlyError(
					"%q is not a valid baud rate.", answer)
			}
			cfg.BaudRate = baud
		}
	}

	return cfg, nil
}

func prompt(reader *bufio.Reader, question string) (string, error) {
	fmt.Fprint(stdout, question)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return "", errors.WithContext(err, "read answer")
	}
	return strings.TrimSpace(answer), nil
}
