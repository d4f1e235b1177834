package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtensionMechanism(t *testing.T) {
	tempDir := t.TempDir()

	// gfs-hello prints the environment it receives.
	helloSource := fmt.Sprintf(`
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("args=%%v\n", os.Args[1:])
}
`, EnvStore, EnvStore, EnvStoreDriver, EnvStoreDriver, EnvVerbose, EnvVerbose)

	helloPath := filepath.Join(tempDir, "gfs-hello")
	srcFile := helloPath + ".go"
	if err := os.WriteFile(srcFile, []byte(helloSource), 0644); err != nil {
		t.Fatalf("Failed to write gfs-hello source: %v", err)
	}
	build := exec.Command("go", "build", "-o", helloPath, srcFile)
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile gfs-hello: %v", err)
	}

	gfsPath := filepath.Join(tempDir, "gfs")
	build = exec.Command("go", "build", "-o", gfsPath, "../gfs")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile gfs binary: %v", err)
	}

	storePath := filepath.Join(tempDir, "store.db")
	gfs := exec.Command(gfsPath, "-store", storePath, "-store-driver", "sqlite", "-v", "hello", "world")
	gfs.Dir = tempDir
	gfs.Env = []string{"PATH=" + tempDir + string(os.PathListSeparator) + os.Getenv("PATH")}
	var stdout, stderr bytes.Buffer
	gfs.Stdout = &stdout
	gfs.Stderr = &stderr
	if err := gfs.Run(); err != nil {
		t.Fatalf("gfs command failed: %v\nStdout: %s\nStderr: %s", err, stdout.String(), stderr.String())
	}

	output := stdout.String()
	for _, want := range []string{
		EnvStore + "=" + storePath,
		EnvStoreDriver + "=sqlite",
		EnvVerbose + "=true",
		"args=[world]",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, but got:\n%s", want, output)
		}
	}
}
