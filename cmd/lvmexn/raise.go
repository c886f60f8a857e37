package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/deepnoodle-ai/lvm/exn"
	"github.com/deepnoodle-ai/lvm/vm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var raiseCmd = &cobra.Command{
	Use:   "raise TAG [CODE] [PAYLOAD...]",
	Short: "Raise an exception in the default context",
	Long: `Raise an exception in the default context.

Without --catch no frame is installed and the exception takes the fatal
path: a diagnostic is printed and the process exits with the failure
status, or with the requested status for a runtime exit.`,
	Example: `  lvmexn raise system generic-system-error 9 "Bad file descriptor"
  lvmexn raise runtime exit 3
  lvmexn raise --catch arithmetic int-zero-divide`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildException(args)
		if err != nil {
			return err
		}
		rt := newRuntime()
		defer rt.Close()
		return runRaise(rt.Default(), e, viper.GetBool("catch"), cmd.OutOrStdout())
	},
}

func init() {
	raiseCmd.Flags().Bool("catch", false, "Install a frame and report the caught exception")
	viper.BindPFlag("catch", raiseCmd.Flags().Lookup("catch"))
}

// buildException parses TAG [CODE] [PAYLOAD...]. The second argument is a
// sub-code when it names one of the tag's sub-codes and a payload value
// otherwise.
func buildException(args []string) (*exn.Exception, error) {
	tag, err := exn.ParseTag(args[0])
	if err != nil {
		return nil, err
	}
	rest := args[1:]
	var code exn.SubCode
	if len(rest) > 0 {
		if c, err := exn.ParseSubCode(tag, rest[0]); err == nil {
			code = c
			rest = rest[1:]
		}
	}
	payload := make([]any, 0, len(rest))
	for _, arg := range rest {
		payload = append(payload, parsePayload(arg))
	}
	return exn.New(tag, code, payload...)
}

// parsePayload reads an integer when possible and a string otherwise.
func parsePayload(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

func runRaise(ec *vm.ExecutionContext, e *exn.Exception, catch bool, w io.Writer) error {
	if !catch {
		ec.Raise(e)
		return nil
	}
	caught := ec.Protect(func() {
		ec.Raise(e)
	})
	if caught == nil {
		return fmt.Errorf("exception was not delivered")
	}
	out, err := getOutput(map[string]any{
		"tag":     caught.Tag.String(),
		"code":    codeName(caught.Code),
		"payload": caught.Payload,
		"depth":   ec.Depth(),
	}, "caught: "+caught.Error(), viper.GetString("output"))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

func codeName(c exn.SubCode) string {
	if c == nil {
		return ""
	}
	return c.String()
}
