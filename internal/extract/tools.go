package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

const (
	// toolTimeout bounds one extraction tool invocation.
	toolTimeout = 5 * time.Minute

	// probeTimeout bounds the version probe at startup.
	probeTimeout = 10 * time.Second
)

// Version of an installed gettext toolchain.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether the version is >= the given one.
func (v Version) AtLeast(major, minor, patch int) bool {
	if v.Major != major {
		return v.Major > major
	}
	if v.Minor != minor {
		return v.Minor > minor
	}
	return v.Patch >= patch
}

// Tools holds the located external gettext toolchain. A nil *Tools means
// xgettext is not installed; the registry then falls back to the embedded
// scanners.
type Tools struct {
	XGettext string
	Version  Version
}

// first line of "xgettext --version":
// "xgettext (GNU gettext-tools) 0.22.5"
var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// FindTools locates xgettext and probes its version. An explicit path
// overrides PATH lookup. Returns nil with no error when the tool is simply
// not installed.
func FindTools(override string) (*Tools, error) {
	path := override
	if path == "" {
		found, err := exec.LookPath("xgettext")
		if err != nil {
			return nil, nil
		}
		path = found
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "--version")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	v, ok := parseToolVersion(stdout.String())
	if !ok {
		return nil, fmt.Errorf("probing %s: unrecognized version output", path)
	}
	return &Tools{XGettext: path, Version: v}, nil
}

func parseToolVersion(output string) (Version, bool) {
	m := versionRe.FindStringSubmatch(output)
	if m == nil {
		return Version{}, false
	}
	var v Version
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, true
}

// toolResult captures one finished tool invocation.
type toolResult struct {
	stdout string
	stderr string
}

// runTool executes an external tool with an explicit argv, never through a
// shell. The invocation gets its own timeout rather than the caller's
// context: cancellation of a run lets an in-flight tool finish and the
// caller discards the output afterwards.
func runTool(dir string, argv []string) (*toolResult, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &toolResult{stdout: stdout.String(), stderr: stderr.String()}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return res, fmt.Errorf("%s timed out after %s", argv[0], toolTimeout)
		}
		return res, fmt.Errorf("%s failed: %w", argv[0], err)
	}
	return res, nil
}
