package docs

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Fenced code blocks with these info strings are executed by TestCodeBlocks.
const (
	bashSetup    = "bash setup"    // starts a scenario in a new folder.
	bashRun      = "bash run"      // its output is compared by the next console check.
	consoleCheck = "console check" // expected output of the previous bash run.
	bashCheck    = "bash check"    // must succeed.
)

// readmeTopics returns the topics listed in readme.md as "* topic: description".
func readmeTopics(t *testing.T) []string {
	t.Helper()
	file, err := os.Open("readme.md")
	if err != nil {
		t.Fatalf("failed to open readme.md: %v", err)
	}
	defer file.Close()

	var topics []string
	re := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if m := re.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			topics = append(topics, strings.TrimSpace(m[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning readme.md: %v", err)
	}
	return topics
}

func TestTopics(t *testing.T) {
	listed := readmeTopics(t)
	for _, topic := range listed {
		if _, err := GetTopic(topic); err != nil {
			t.Errorf("readme.md lists %q: %v", topic, err)
		}
	}

	all, err := GetAllTopics()
	if err != nil {
		t.Fatal(err)
	}
	for _, topic := range all {
		if !slices.Contains(listed, topic) {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
	}

	if _, err := GetTopic("nope"); err == nil {
		t.Error("GetTopic(nope) succeeded, want an error")
	}
	everything, err := GetTopic("*")
	if err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"# Workflow", "# Custom platforms", "# Store"} {
		if !strings.Contains(everything, title) {
			t.Errorf("GetTopic(*) does not contain %q", title)
		}
	}
	if strings.Contains(everything, "# gfs documentation") {
		t.Error("GetTopic(*) contains the readme")
	}
}

func TestCodeBlocks(t *testing.T) {
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	files = append(files, "../README.md")

	bin := buildGfs(t)
	env := []string{fmt.Sprintf("PATH=%s%c%s", filepath.Dir(bin), os.PathListSeparator, os.Getenv("PATH"))}
	for _, kv := range os.Environ() {
		// the scenarios own the store, and must not read the user's one.
		if !strings.HasPrefix(kv, "PATH=") && !strings.HasPrefix(kv, "GFS_") && !strings.HasPrefix(kv, "GEMINI_") {
			env = append(env, kv)
		}
	}

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			blocks := parseMarkdown(t, file)
			r := blockRunner{env: env, dir: t.TempDir()}
			for _, block := range blocks {
				r.run(t, block)
			}
		})
	}
}

// block is a fenced code block of a markdown file.
type block struct {
	Type    string
	Content string
	File    string
	Line    int
}

func (b *block) String() string { return fmt.Sprintf("%s:%d: %s", b.File, b.Line, b.Type) }

// buildGfs builds the gfs binary in a temporary folder and returns its path.
func buildGfs(t *testing.T) string {
	t.Helper()
	output := filepath.Join(t.TempDir(), "gfs")
	if out, err := exec.Command("go", "build", "-o", output, "../gfs/").CombinedOutput(); err != nil {
		t.Fatalf("failed to build gfs: %v\n%s", err, out)
	}
	return output
}

// parseMarkdown returns the executable blocks of file, in order.
func parseMarkdown(t *testing.T, file string) []*block {
	t.Helper()
	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}

	var blocks []*block
	root := goldmark.DefaultParser().Parse(text.NewReader(content))
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		info := string(fcb.Info.Segment.Value(content))
		switch info {
		case bashSetup, bashRun, consoleCheck, bashCheck:
		default:
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		for i := 0; i < fcb.Lines().Len(); i++ {
			line := fcb.Lines().At(i)
			b.Write(line.Value(content))
		}
		blocks = append(blocks, &block{
			Type:    info,
			Content: b.String(),
			File:    file,
			Line:    bytes.Count(content[:fcb.Info.Segment.Start], []byte{'\n'}) + 1,
		})
		return ast.WalkContinue, nil
	})
	return blocks
}

// blockRunner runs the blocks of a file, sharing a folder per scenario.
type blockRunner struct {
	env    []string
	dir    string
	output string // output of the last bash run.
}

func (r *blockRunner) run(t *testing.T, b *block) {
	t.Helper()
	if b.Type == consoleCheck {
		want := strings.TrimSpace(b.Content)
		got := strings.TrimSpace(r.output)
		if want != got {
			t.Errorf("%v: output mismatch:\ngot:\n\n%s\n\nwant:\n\n%s\n\ngot :%q\nwant:%q", b, got, want, got, want)
		}
		return
	}
	if b.Type == bashSetup {
		r.dir = t.TempDir()
	}

	cmd := exec.Command("bash", "-c", "set -e; "+b.Content)
	cmd.Dir = r.dir
	cmd.Env = r.env
	output, err := cmd.CombinedOutput()
	if b.Type == bashRun {
		r.output = string(output)
	}
	if err == nil {
		return
	}
	if b.Type == bashCheck {
		t.Errorf("%v failed: %v with output:\n%s", b, err, output)
		return
	}
	t.Fatalf("%v failed: %v with output:\n%s", b, err, output)
}
