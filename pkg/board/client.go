package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mpdev-io/mpdev/pkg/errors"
	"github.com/mpdev-io/mpdev/pkg/link"
)

// DefaultTimeout bounds each invocation of the device control tool. Serial
// transfers are slow, but anything beyond this means the tool is wedged.
const DefaultTimeout = 10 * time.Second

// Variables mocked for unit testing.
var (
	startCommand = (*exec.Cmd).Start
	waitCommand  = (*exec.Cmd).Wait
	killProcess  = func(cmd *exec.Cmd) error { return cmd.Process.Kill() }
)

// Entry is one node of the board's filesystem, as reported by the control
// tool's JSON listing. The tool computes the sha256 of each file on-device so
// that we never have to pull file contents just to compare them.
type Entry struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size,omitempty"`
	Hash  string `json:"sha256,omitempty"`
	MTime int64  `json:"mtime,omitempty"`
}

// Client issues filesystem operations against the board by shelling out to
// the device control tool. Every call runs under the exclusive-access token
// the client was created with, so no two clients' subprocess calls can
// interleave on the wire.
type Client struct {
	tool  string
	lnk   *link.Link
	token *link.Token

	// Timeout bounds each subprocess invocation.
	Timeout time.Duration
}

// NewClient creates a Client that reaches the board through `tool`. The
// token must be held for the client's whole lifetime.
func NewClient(tool string, lnk *link.Link, token *link.Token) (*Client, error) {
	if token == nil {
		return nil, errors.New("board client requires exclusive access")
	}
	return &Client{
		tool:    tool,
		lnk:     lnk,
		token:   token,
		Timeout: DefaultTimeout,
	}, nil
}

// invoke runs `tool <subcommand> --port <dev> --baudrate <rate> <extra...>`
// with stdin connected to `input`, and returns the subprocess's stdout.
func (c *Client) invoke(subcommand string, extra []string, input []byte) ([]byte, error) {
	if c.lnk.Port() == "" {
		return nil, errors.LinkUnavailable{Reason: "no port configured"}
	}

	args := append([]string{
		subcommand,
		"--port", c.lnk.Port(),
		"--baudrate", strconv.Itoa(c.lnk.BaudRate()),
	}, extra...)

	cmd := exec.Command(c.tool, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	log.WithFields(log.Fields{
		"tool": c.tool,
		"args": args,
	}).Debug("Invoking device control tool")

	if err := startCommand(cmd); err != nil {
		return nil, errors.ToolInvocationFailed{Subcommand: subcommand, Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- waitCommand(cmd)
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, errors.ToolInvocationFailed{
				Subcommand: subcommand,
				Stderr:     strings.TrimSpace(stderr.String()),
				Err:        err,
			}
		}
	case <-time.After(c.Timeout):
		if err := killProcess(cmd); err != nil {
			log.WithError(err).Warn("Failed to kill timed out tool subprocess")
		}
		<-done
		return nil, errors.ToolInvocationFailed{
			Subcommand: subcommand,
			Err:        fmt.Errorf("timed out after %s", c.Timeout),
		}
	}

	return stdout.Bytes(), nil
}

// List returns every entry under `path` on the board, recursively. Empty or
// malformed tool output is treated as an empty board rather than a failure,
// so that a freshly flashed board with nothing on it still syncs. A failed
// tool invocation is a hard error: an empty listing would make a
// delete-inclusive sync remove every file on the other side.
func (c *Client) List(path string) ([]Entry, error) {
	stdout, err := c.invoke("ls", []string{"--path", path, "--recursive", "--json"}, nil)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(stdout)) == 0 {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal(stdout, &entries); err != nil {
		log.WithError(err).Debug("Unparseable board listing. Treating the board as empty.")
		return nil, nil
	}
	return entries, nil
}

// Read returns the contents of the file at `path` on the board.
func (c *Client) Read(path string) ([]byte, error) {
	stdout, err := c.invoke("cat", []string{"--path", path}, nil)
	if err != nil {
		return nil, err
	}
	return stdout, nil
}

// Write stores `contents` at `path` on the board, replacing any existing
// file. The parent directory must already exist.
func (c *Client) Write(path string, contents []byte) error {
	_, err := c.invoke("put", []string{"--path", path}, contents)
	return err
}

// Delete removes the file or empty directory at `path` on the board.
func (c *Client) Delete(path string) error {
	_, err := c.invoke("rm", []string{"--path", path}, nil)
	return err
}

// Mkdir creates the directory at `path` on the board. Creating a directory
// that already exists is not an error.
func (c *Client) Mkdir(path string) error {
	_, err := c.invoke("mkdir", []string{"--path", path}, nil)
	if err != nil {
		if toolErr, ok := errors.RootCause(err).(errors.ToolInvocationFailed); ok &&
			strings.Contains(toolErr.Stderr, "EEXIST") {
			return nil
		}
	}
	return err
}

// Run uploads and executes the file at the local path `path`, returning
// whatever the program printed before it exited.
func (c *Client) Run(path string) ([]byte, error) {
	return c.invoke("run", []string{"--path", path}, nil)
}
