//go:build !windows

package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workers "github.com/azhengyongqin/fetchhub/internal/worker"
)

func TestProcessAlive(t *testing.T) {
	assert.True(t, ProcessAlive(os.Getpid()))
	assert.False(t, ProcessAlive(0))
	assert.False(t, ProcessAlive(-1))
}

func TestProcessSpawner_CommandLine(t *testing.T) {
	p := &ProcessSpawner{Bin: "/opt/fetchhub/worker.py", Interpreter: "python3", Env: []string{"FETCHHUB_X=1"}}
	cmd, err := p.command(42)
	require.NoError(t, err)
	assert.Equal(t, []string{"python3", "/opt/fetchhub/worker.py", "42"}, cmd.Args)
	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid, "worker 需要独立的进程组")
	assert.Nil(t, cmd.Stdin)
	assert.Contains(t, cmd.Env, "FETCHHUB_X=1")

	_, err = (&ProcessSpawner{}).command(1)
	assert.Error(t, err)
}

func TestProcessSpawner_SpawnAndReap(t *testing.T) {
	script := filepath.Join(t.TempDir(), "worker.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	exited := make(chan int64, 1)
	reg := workers.NewRegistry()
	p := &ProcessSpawner{
		Bin:      script,
		Registry: reg,
		OnExit:   func(taskID int64, _ int, _ error) { exited <- taskID },
	}

	pid, err := p.Spawn(context.Background(), 9)
	require.NoError(t, err)
	assert.Greater(t, pid, 0)

	select {
	case id := <-exited:
		assert.Equal(t, int64(9), id)
	case <-time.After(5 * time.Second):
		t.Fatal("子进程未被回收")
	}
	assert.Equal(t, 0, reg.Len())
	assert.Eventually(t, func() bool { return !ProcessAlive(pid) }, 2*time.Second, 20*time.Millisecond)
}

func TestProcessSpawner_MissingBinary(t *testing.T) {
	p := &ProcessSpawner{Bin: filepath.Join(t.TempDir(), "does-not-exist")}
	_, err := p.Spawn(context.Background(), 1)
	assert.Error(t, err)
}
