package testsupport

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rogpeppe/go-internal/testscript"
)

var (
	buildOnce    sync.Once
	livesyncPath string
	buildErr     error
)

// BuildLivesync builds the livesync binary once and returns its path.
func BuildLivesync(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "livesync-bin-")
		if err != nil {
			buildErr = err
			return
		}

		livesyncPath = filepath.Join(binDir, "livesync")
		cmd := exec.Command("go", "build", "-o", livesyncPath, "./cmd/livesync")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build livesync: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return livesyncPath
}

// SetupScriptEnv configures common environment variables for testscript.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("LIVESYNC", BuildLivesync(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := EnsureHomeDirs(homeDir); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	return nil
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}

	value := strings.TrimSpace(ts.ReadFile(args[1]))
	ts.Setenv(args[0], value)
}

// CmdMkConfig writes a livesync.toml in the work directory wired to a
// free local port, and exports SERVER with the matching base URL.
func CmdMkConfig(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("mkconfig does not support negation")
	}
	if len(args) != 0 {
		ts.Fatalf("usage: mkconfig")
	}

	port, err := freePort()
	if err != nil {
		ts.Fatalf("find free port: %v", err)
	}

	workDir := ts.Getenv("WORK")
	serverURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	content := fmt.Sprintf(`
[server]
listen = "127.0.0.1:%d"
dev-routes = true

[database]
path = %q

[auth]
secret = "script-secret"

[client]
server = %q
`, port, filepath.Join(workDir, "livesync.db"), serverURL)

	configPath := filepath.Join(workDir, "livesync.toml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		ts.Fatalf("write config: %v", err)
	}
	ts.Setenv("SERVER", serverURL)
}

// CmdWaitServer polls the server's health endpoint until it responds.
func CmdWaitServer(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("waitserver does not support negation")
	}
	if len(args) != 0 {
		ts.Fatalf("usage: waitserver")
	}

	serverURL := ts.Getenv("SERVER")
	if serverURL == "" {
		ts.Fatalf("SERVER is not set; run mkconfig first")
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(serverURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	ts.Fatalf("server at %s did not become healthy", serverURL)
}

func freePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
