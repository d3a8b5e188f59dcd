package discovery

import (
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

const (
	// DefaultExtendScript scrolls to the end of the document
	DefaultExtendScript = `window.scrollTo(0, document.body.scrollHeight);`

	// DefaultMeasureScript returns the current content extent
	DefaultMeasureScript = `document.body.scrollHeight`

	literalEvalBudget = 250 * time.Millisecond
)

// ValidateScript compiles a page script without running it so syntax errors
// surface before a browser is launched.
func ValidateScript(name, src string) error {
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("%s script is empty", name)
	}
	if _, err := goja.Compile(name, src, false); err != nil {
		return fmt.Errorf("%s script does not compile: %w", name, err)
	}
	return nil
}

// evaluateLiteral evaluates a JavaScript object literal (as found in inline
// state assignments that are not strict JSON) in an isolated VM and returns
// its exported Go value.
func evaluateLiteral(src string) (interface{}, error) {
	vm := goja.New()

	// Only literals are expected; anything touching a browser global fails fast
	vm.Set("window", vm.GlobalObject())
	vm.Set("console", map[string]interface{}{
		"log": func(call goja.FunctionCall) goja.Value { return nil },
	})

	timer := time.AfterFunc(literalEvalBudget, func() {
		vm.Interrupt("evaluation budget exceeded")
	})
	defer timer.Stop()

	val, err := vm.RunString("(" + src + ")")
	if err != nil {
		return nil, err
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	return val.Export(), nil
}
