package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/deepnoodle-ai/lvm/vm"
	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var red = color.New(color.FgRed).SprintFunc()

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var outputFormatsCompletion = []string{"json", "text"}

func getOutput(result any, text string, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return text, nil
	case "json":
		output, err := getOutputJSON(result)
		if err != nil {
			return "", err
		}
		return string(output), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

func getOutputJSON(result any) ([]byte, error) {
	if viper.GetBool("no-color") {
		return json.MarshalIndent(result, "", "  ")
	}
	return prettyjson.Marshal(result)
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() error {
	if viper.GetBool("no-color") || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
	if _, err := zerolog.ParseLevel(viper.GetString("log-level")); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

func logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: color.NoColor}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// newRuntime builds a runtime configured from flags, environment and the
// config file.
func newRuntime(options ...vm.Option) *vm.Runtime {
	base := []vm.Option{
		vm.WithLogger(logger()),
		vm.WithFailureStatus(viper.GetInt("failure-status")),
		vm.WithColor(!viper.GetBool("no-color") && isTerminal(os.Stderr)),
	}
	return vm.New(append(base, options...)...)
}
