package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/session"
)

// RollbarLogger prints to a std logger and reports the same entries to Rollbar.
// Arguments may be errors, map[string]interface{} extras and at most one
// session.Identity, which becomes the Rollbar person.
type RollbarLogger struct {
	std      *log.Logger
	testMode bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	l := &RollbarLogger{std: std, testMode: conf.TestMode}
	l.Enable(conf.RollbarToken != "")
	return l
}

// Enable toggles reporting. Tests never report.
func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled && !l.testMode)
}

// splitArgs separates the identity from the arguments forwarded as-is.
func splitArgs(args []interface{}) (*session.Identity, []interface{}) {
	var idt *session.Identity
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		if i, ok := arg.(session.Identity); ok {
			if idt == nil {
				idt = &i
			}
			continue
		}
		rest = append(rest, arg)
	}
	return idt, rest
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	idt, rest := splitArgs(args)

	if idt != nil {
		rollbar.SetPerson(idt.UserID, idt.Name, "")
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, append([]interface{}{msg}, rest...)...)

	l.std.Printf("[%s] %s", level, msg)
	for _, arg := range rest {
		l.std.Printf("%+v", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
