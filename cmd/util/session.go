package util

import (
	"os"

	"github.com/mpdev-io/mpdev/pkg/board"
	"github.com/mpdev-io/mpdev/pkg/config"
	"github.com/mpdev-io/mpdev/pkg/errors"
	"github.com/mpdev-io/mpdev/pkg/link"
	"github.com/mpdev-io/mpdev/pkg/tool"
)

// Mocked for unit testing.
var getWorkingDirectory = os.Getwd

// Session bundles everything an exclusive board operation needs: the user
// config read fresh for this operation, the device link with exclusive
// access held, and a board client bound to that access.
type Session struct {
	User   config.User
	Link   *link.Link
	Token  *link.Token
	Client *board.Client
}

// OpenSession reads the configuration, resolves the port and tool, and
// acquires exclusive access to the link. The config is parsed per session
// rather than cached so that a changed port takes effect on the next
// command without a restart.
func OpenSession(operation string) (*Session, error) {
	userConfig, err := config.ParseUser()
	if err != nil {
		return nil, errors.WithContext(err, "parse user config")
	}

	port, err := link.ResolvePort(userConfig.Port)
	if err != nil {
		return nil, err
	}

	return NewSessionOnLink(link.New(port, userConfig.BaudRate), userConfig, operation)
}

// NewSessionOnLink acquires exclusive access on an existing link. It's used
// by `mpdev dev`, which keeps one link alive across many operations so that
// the serial monitor stays registered.
func NewSessionOnLink(lnk *link.Link, userConfig config.User, operation string) (*Session, error) {
	toolPath, err := tool.Resolve(userConfig.Tool)
	if err != nil {
		return nil, err
	}

	token, err := lnk.AcquireExclusive(operation)
	if err != nil {
		return nil, err
	}

	client, err := board.NewClient(toolPath, lnk, token)
	if err != nil {
		token.Release()
		return nil, err
	}

	return &Session{
		User:   userConfig,
		Link:   lnk,
		Token:  token,
		Client: client,
	}, nil
}

// Close releases exclusive access. It's safe to call more than once.
func (s *Session) Close() {
	s.Token.Release()
}

// ResolveProject finds the project directory for the current command: the
// working directory if it contains an mpdev.yaml, otherwise the project
// configured in the user config.
func ResolveProject(userConfig config.User) (string, config.Project, error) {
	wd, err := getWorkingDirectory()
	if err == nil {
		project, err := config.ParseProject(wd)
		if err == nil {
			return wd, project, nil
		}
		if _, ok := errors.RootCause(err).(errors.FileNotFound); !ok {
			return "", config.Project{}, err
		}
	}

	if userConfig.Project != "" {
		project, err := config.ParseProject(userConfig.Project)
		if err != nil {
			return "", config.Project{}, err
		}
		return userConfig.Project, project, nil
	}

	return "", config.Project{}, errors.NewFriendlyError(
		"No mpdev.yaml found in the current directory, and no default "+
			"project is configured.\n"+
			"Run mpdev from your project directory, or set the `project` "+
			"field in %s.", config.UserConfigPath)
}
