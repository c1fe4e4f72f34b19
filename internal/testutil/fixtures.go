package testutil

import (
	"path/filepath"
	"runtime"

	"github.com/leapstack-labs/vcol/pkg/core"
)

// DemoLogic returns the reference logic map: real fields h, i, j, k and
// derived fields mixing operators, constants and a function call.
// testdata/demo/logic.yaml holds the same fields plus r, which calls the
// Starlark function stats.ratio.
func DemoLogic() *core.Logic {
	return core.NewLogic().
		Set("b", "i", "c:3600", "/").
		Set("c", "i", "j", "k", "+", "*").
		Set("d", "i", "e", "+").
		Set("e", "j", "k", "+", "i", "-").
		Set("g", "j", "k", "+").
		Set("h").
		Set("i").
		Set("j").
		Set("k").
		Set("l", "m", "c:10.0", ">").
		Set("m", "g", "h", "*").
		Set("n", "c:1").
		Set("o", "n", "c:1", "j", "k", "f:nanmean:3", "+")
}

// DemoRealFields lists the real fields of DemoLogic.
var DemoRealFields = []string{"h", "i", "j", "k"}

// TestdataDir returns the absolute path of the repository testdata
// directory.
func TestdataDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "testdata")
}

// DemoDir returns the absolute path of the demo project.
func DemoDir() string {
	return filepath.Join(TestdataDir(), "demo")
}
