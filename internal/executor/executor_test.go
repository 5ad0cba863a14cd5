package executor

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerArgs(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Command{Args: []string{"echo", "hello", "world"}})
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
	assert.NoError(t, res.Err())
}

func TestExecRunnerStdin(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Command{
		Args:  []string{"cat"},
		Stdin: strings.NewReader("CREATE TABLE t (id INT);\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE t (id INT);\n", res.Stdout)
}

func TestExecRunnerShell(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Command{Shell: "echo out; echo err >&2; exit 3"})
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 3, res.ExitCode)

	var exitErr *ExitError
	require.True(t, errors.As(res.Err(), &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "exit status 3: err", exitErr.Error())
}

func TestExecRunnerEnvIsScopedToChild(t *testing.T) {
	const key = "DBKEEPER_EXECUTOR_TEST_SECRET"
	_, present := os.LookupEnv(key)
	require.False(t, present)

	res, err := ExecRunner{}.Run(context.Background(), Command{
		Shell: "printf %s \"$" + key + "\"",
		Env:   map[string]string{key: "s3cret"},
	})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", res.Stdout)

	_, present = os.LookupEnv(key)
	assert.False(t, present)
}

func TestExecRunnerDir(t *testing.T) {
	dir := t.TempDir()
	res, err := ExecRunner{}.Run(context.Background(), Command{Args: []string{"pwd"}, Dir: dir})
	require.NoError(t, err)
	assert.Contains(t, strings.TrimSpace(res.Stdout), strings.TrimPrefix(dir, "/private"))
}

func TestExecRunnerLaunchFailure(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Command{Args: []string{"dbkeeper-no-such-binary"}})
	assert.Error(t, err)
}

func TestExecRunnerInvalidCommand(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Command{})
	assert.Error(t, err)

	_, err = ExecRunner{}.Run(context.Background(), Command{Args: []string{"true"}, Shell: "true"})
	assert.Error(t, err)
}

func TestExecRunnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := ExecRunner{}.Run(ctx, Command{Args: []string{"sleep", "5"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnviron(t *testing.T) {
	base := []string{"PATH=/bin", "MYSQL_PWD=old", "HOME=/root"}
	got := Environ(base, map[string]string{"MYSQL_PWD": "new", "A": "1"})

	assert.Equal(t, []string{"PATH=/bin", "HOME=/root", "A=1", "MYSQL_PWD=new"}, got)
	assert.Equal(t, "MYSQL_PWD=old", base[1])
}
