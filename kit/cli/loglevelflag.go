package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

// supportedLevels are the levels a log-level flag accepts.
var supportedLevels = []zapcore.Level{
	zapcore.DebugLevel,
	zapcore.InfoLevel,
	zapcore.WarnLevel,
	zapcore.ErrorLevel,
}

// levelFlag adapts a *zapcore.Level to pflag.Value.
type levelFlag struct {
	p *zapcore.Level
}

func (l levelFlag) String() string {
	if l.p == nil {
		return zapcore.InfoLevel.String()
	}
	return l.p.String()
}

func (l levelFlag) Set(s string) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return fmt.Errorf("unknown log level %q; supported levels are %s", s, levelNames())
	}
	for _, supported := range supportedLevels {
		if level == supported {
			*l.p = level
			return nil
		}
	}
	return fmt.Errorf("unsupported log level %q; supported levels are %s", s, levelNames())
}

func (l levelFlag) Type() string {
	return "log-level"
}

func levelNames() string {
	names := make([]string, 0, len(supportedLevels))
	for _, l := range supportedLevels {
		names = append(names, l.String())
	}
	return strings.Join(names, ", ")
}

// LevelVar defines a zapcore.Level flag with specified name, default value, and usage string.
// The argument p points to a zapcore.Level variable in which to store the value of the flag.
func LevelVar(fs *pflag.FlagSet, p *zapcore.Level, name string, value zapcore.Level, usage string) {
	LevelVarP(fs, p, name, "", value, usage)
}

// LevelVarP is like LevelVar, but accepts a shorthand letter that can be used after a single dash.
func LevelVarP(fs *pflag.FlagSet, p *zapcore.Level, name, shorthand string, value zapcore.Level, usage string) {
	*p = value
	fs.VarP(levelFlag{p: p}, name, shorthand, usage)
}
