package nodes

import (
	"sync"

	"github.com/nodeflowlabs/nodeflow/internal/expr"
)

// Branch expressions are compiled once per distinct source string and then
// reused; execution never parses.
var (
	cacheMu  sync.RWMutex
	compiled = map[string]expr.Expr{}
)

func compile(source string) (expr.Expr, error) {
	cacheMu.RLock()
	e, ok := compiled[source]
	cacheMu.RUnlock()
	if ok {
		return e, nil
	}
	e, err := expr.Compile(source)
	if err != nil {
		return nil, err
	}
	cacheMu.Lock()
	compiled[source] = e
	cacheMu.Unlock()
	return e, nil
}
