package dev

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/config"
	"github.com/mpdev-io/mpdev/pkg/link"
	"github.com/mpdev-io/mpdev/pkg/sync"
)

// The interval to poll the filesystem for any changes that need to be synced.
const pollSeconds = 15

type syncer struct {
	lnk        *link.Link
	userConfig config.User
	projectDir string
	project    config.Project

	fileWatcher chan struct{}
	stop        chan struct{}

	log *logrus.Logger
}

func newSyncer(log *logrus.Logger, lnk *link.Link, userConfig config.User,
	projectDir string, project config.Project) (*syncer, error) {

	fileWatcher, err := watchProject(log, projectDir, project)
	if err != nil {
		return nil, err
	}

	return &syncer{
		lnk:         lnk,
		userConfig:  userConfig,
		projectDir:  projectDir,
		project:     project,
		fileWatcher: fileWatcher,
		stop:        make(chan struct{}),
		log:         log,
	}, nil
}

// Run pushes local changes to the board whenever a watched file changes, and
// on a slow timer as a catch-all for missed events. The workspace state is
// re-read before every sync so that toggling auto-sync in another terminal
// takes effect immediately.
func (s *syncer) Run() {
	ticker := time.NewTicker(pollSeconds * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.fileWatcher:
		case <-ticker.C:
		case <-s.stop:
			return
		}

		state, err := config.LoadWorkspaceState(s.projectDir)
		if err != nil {
			s.log.WithError(err).Error("Failed to read workspace state")
			continue
		}
		if !state.AutoSync {
			continue
		}

		if err := s.syncOnce(); err != nil {
			s.log.WithError(err).Error("Sync failed")
		}
	}
}

// Stop terminates the sync loop.
func (s *syncer) Stop() {
	close(s.stop)
}

func (s *syncer) syncOnce() error {
	session, err := util.NewSessionOnLink(s.lnk, s.userConfig, "autosync")
	if err != nil {
		return err
	}
	defer session.Close()

	orchestrator := sync.New(session.Client, s.projectDir,
		s.project.BoardRoot, s.project.Ignore)

	report, err := orchestrator.SyncDiffs(context.Background(), sync.LocalToBoard, false)
	if err != nil {
		return err
	}

	if len(report.Results) > 0 {
		s.log.Info(report.Summary())
	}
	return nil
}
