package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opmodel/modpipe/internal/testutil"
)

const testConfig = `
layer: app
compileTime:
  environment: node
  defines:
    REGION: us
moduleOptions:
  ignore: ["*.css"]
transitions:
  - name: client
    type: wrap
    parameters:
      wrapper: client-reference
      suffix: /client
  - name: edge
    type: environment
    parameters:
      environment: edge
      defines:
        REGION: eu
      layer: edge
  - name: same
    type: layer
    parameters:
      layer: app
`

// workspace writes a config file and sources into a temp dir and returns
// the dir and the config path.
func workspace(t *testing.T, files map[string]string) (string, string) {
	t.Helper()
	t.Setenv("MODPIPE_CONFIG", "")
	testutil.SetHome(t)

	dir := testutil.TempDir(t)
	cfgPath := testutil.WriteFile(t, dir, "modpipe.yaml", testConfig)
	testutil.WriteFiles(t, dir, files)
	return dir, cfgPath
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func src(dir, name string) string {
	return filepath.Join(dir, name)
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, ExitCodeFromError(err), "error: %v", err)
}
