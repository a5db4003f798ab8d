package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	// tests run from the repository root so relative paths (logs/, testdata/)
	// resolve the same way for every package
	//
	//   import (
	//     _ "liyu1981.xyz/tablet-telemetry-service/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	err := os.Chdir(dir)
	if err != nil {
		panic(err)
	}
}
