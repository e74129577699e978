// console: console.log/info/warn/error are script-visible built-ins
// that format their arguments and write them through the VM's logger
// (vm.log, i.e. Options.Log, which defaults to the root logger) at Info,
// Warn or Error level, grounded on the teacher's log package (see
// SPEC_FULL.md §A.1).
package vm

import (
	"strings"

	"github.com/nginx/njs-go/internal/value"
)

func (vm *VM) setupConsole() {
	c := value.NewObject(value.Object)
	c.Proto = vm.protos.Object
	c.Extensible = true

	logFn := func(level string) value.NativeFunc {
		return func(a value.NativeArgs) (value.Value, error) {
			parts := make([]string, len(a.Args))
			for i, arg := range a.Args {
				parts[i] = ToStringNoThrow(arg)
			}
			msg := strings.Join(parts, " ")
			switch level {
			case "error":
				vm.log.Error(msg)
			case "warn":
				vm.log.Warn(msg)
			default:
				vm.log.Info(msg)
			}
			return value.Undefined_(), nil
		}
	}
	vm.nativeMethod(c, "log", 0, logFn("log"))
	vm.nativeMethod(c, "info", 0, logFn("log"))
	vm.nativeMethod(c, "warn", 0, logFn("warn"))
	vm.nativeMethod(c, "error", 0, logFn("error"))

	vm.setOwn(vm.Global, "console", value.FromObject(value.Object, c), true, false, true)
}
