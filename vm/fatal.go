package vm

import (
	"fmt"

	"github.com/deepnoodle-ai/lvm/exn"
	"github.com/fatih/color"
)

// Terminated is the panic value used when the configured exit function
// returns instead of ending the process, as it does in tests.
type Terminated struct {
	Status    int
	Exception *exn.Exception
}

func (t Terminated) Error() string {
	return fmt.Sprintf("terminated with status %d: %s", t.Status, t.Exception)
}

// fatal reports an exception that reached a context with no frame and ends
// the process. It never returns.
func (rt *Runtime) fatal(ec *ExecutionContext, e *exn.Exception) {
	status, deliberate := e.ExitStatus()
	if !deliberate {
		status = rt.failureStatus
		rt.writeDiagnostic(ec, e)
	}
	ec.logger.Error().
		Object("exception", e).
		Int("status", status).
		Bool("exit", deliberate).
		Msg("uncaught exception")
	rt.exit(status)
	panic(Terminated{Status: status, Exception: e})
}

func (rt *Runtime) writeDiagnostic(ec *ExecutionContext, e *exn.Exception) {
	header := color.New(color.FgRed, color.Bold)
	label := color.New(color.FgYellow)
	faint := color.New(color.Faint)
	if !rt.color {
		header.DisableColor()
		label.DisableColor()
		faint.DisableColor()
	}
	w := rt.diagnostics
	header.Fprint(w, "uncaught exception: ")
	fmt.Fprintln(w, e.Tag)
	if e.Code != nil {
		label.Fprint(w, "  code:    ")
		fmt.Fprintln(w, e.Code)
	}
	if len(e.Payload) > 0 {
		label.Fprint(w, "  payload: ")
		fmt.Fprintln(w, e.PayloadString())
	}
	for _, f := range e.Fields {
		label.Fprintf(w, "  %s: ", f.Key)
		fmt.Fprintln(w, f.Value)
	}
	if e.Cause != nil {
		label.Fprint(w, "  cause:   ")
		fmt.Fprintln(w, e.Cause)
	}
	if e.IsAsync() {
		faint.Fprintln(w, "  (asynchronous)")
	}
	faint.Fprintf(w, "  context: %s\n", ec)
}
