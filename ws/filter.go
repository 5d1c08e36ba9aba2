package ws

import (
	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	lru "github.com/hashicorp/golang-lru"
	"github.com/wavelink-chat/wavelink-relay/filter"
	"github.com/wavelink-chat/wavelink-relay/globals"
)

// messageFilter gates inbound chat messages on a configured expr expression.
// Compiled programs are cached, per-room overrides would otherwise force a
// recompile on every message.
type messageFilter struct {
	progs *lru.Cache // filter source -> *vm.Program
}

func newMessageFilter() *messageFilter {
	progs, err := lru.New(compiledFilterCacheSize)
	if err != nil {
		// only fails on a non-positive size
		panic(err)
	}
	return &messageFilter{progs: progs}
}

// Admit reports whether the message described by env passes the filter
// expression. An empty expression admits everything; a compile or runtime
// error, or a non-true result, drops the message.
func (f *messageFilter) Admit(source string, env filter.Env) bool {
	if source == "" {
		return true
	}
	var prog *vm.Program
	if cached, ok := f.progs.Get(source); ok {
		prog = cached.(*vm.Program)
	} else {
		compiled, err := expr.Compile(source, expr.Env(filter.Env{}))
		if err != nil {
			globals.AppLogger.Error("could not compile message filter", "filter", source, "error", err)
			return false
		}
		f.progs.Add(source, compiled)
		prog = compiled
	}
	res, err := expr.Run(prog, env)
	if err != nil {
		globals.AppLogger.Error("could not run message filter", "filter", source, "error", err)
		return false
	}
	if bRes, ok := res.(bool); ok && bRes {
		return true
	}
	return false
}
