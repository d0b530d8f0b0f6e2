package sync

import (
	"context"
	"path"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/mpdev-io/mpdev/pkg/board"
	"github.com/mpdev-io/mpdev/pkg/errors"
)

// BoardClient is the part of the board filesystem client the orchestrator
// needs. It's an interface so that tests can drive the orchestrator against
// an in-memory board.
type BoardClient interface {
	List(path string) ([]board.Entry, error)
	Read(path string) ([]byte, error)
	Write(path string, contents []byte) error
	Delete(path string) error
	Mkdir(path string) error
}

// Direction says which side of a sync is the source.
type Direction int

const (
	// LocalToBoard pushes local changes to the board.
	LocalToBoard Direction = iota

	// BoardToLocal pulls board changes to the local directory.
	BoardToLocal
)

func (d Direction) String() string {
	if d == BoardToLocal {
		return "board to local"
	}
	return "local to board"
}

// Orchestrator drives the high-level sync operations. The caller must hold
// exclusive access to the device link for the orchestrator's whole lifetime;
// the board client it wraps already ensures this.
type Orchestrator struct {
	client    BoardClient
	localRoot string
	boardRoot string
	ignore    []string
}

// New creates an Orchestrator syncing between the local directory and the
// board directory.
func New(client BoardClient, localRoot, boardRoot string, ignore []string) *Orchestrator {
	return &Orchestrator{
		client:    client,
		localRoot: localRoot,
		boardRoot: boardRoot,
		ignore:    ignore,
	}
}

// CheckDiffs snapshots both sides and returns the classification of every
// path, without changing anything.
func (o *Orchestrator) CheckDiffs() ([]DiffEntry, error) {
	local, boardSnap, err := o.snapshots()
	if err != nil {
		return nil, err
	}
	return Diff(local, boardSnap), nil
}

// BaselineUpload writes every local file to the board at the same relative
// path, creating directories first. It never deletes board-only files.
func (o *Orchestrator) BaselineUpload(ctx context.Context) (Report, error) {
	local, err := o.snapshotLocal()
	if err != nil {
		return Report{}, errors.WithContext(err, "snapshot local files")
	}

	plan := NewPlan(Diff(local, Snapshot{}), false)
	return o.apply(ctx, plan, LocalToBoard)
}

// BaselineDownload mirrors BaselineUpload: it copies every board file into
// the local directory, creating directories first, deleting nothing.
func (o *Orchestrator) BaselineDownload(ctx context.Context) (Report, error) {
	boardSnap, err := o.snapshotBoard()
	if err != nil {
		return Report{}, errors.WithContext(err, "snapshot board files")
	}

	plan := NewPlan(Diff(boardSnap, Snapshot{}), false)
	return o.apply(ctx, plan, BoardToLocal)
}

// SyncDiffs snapshots both sides and applies only the Added and Modified
// entries in the given direction. Removed entries are deleted from the
// target only when includeDeletes is set.
func (o *Orchestrator) SyncDiffs(ctx context.Context, direction Direction,
	includeDeletes bool) (Report, error) {

	local, boardSnap, err := o.snapshots()
	if err != nil {
		return Report{}, err
	}

	source, target := local, boardSnap
	if direction == BoardToLocal {
		source, target = boardSnap, local
	}

	plan := NewPlan(Diff(source, target), includeDeletes)
	return o.apply(ctx, plan, direction)
}

// Wipe deletes every entry on the board, files before their parent
// directories. It's the only operation that deletes without a diff: the
// caller is expected to have confirmed this explicitly with the user.
func (o *Orchestrator) Wipe(ctx context.Context) (Report, error) {
	boardSnap, err := o.snapshotBoard()
	if err != nil {
		return Report{}, errors.WithContext(err, "snapshot board files")
	}

	// Diffing the board against an empty source classifies everything as
	// Removed, which the plan orders bottom-up.
	plan := NewPlan(Diff(Snapshot{}, boardSnap), true)
	return o.apply(ctx, plan, LocalToBoard)
}

func (o *Orchestrator) snapshots() (local, boardSnap Snapshot, err error) {
	local, err = o.snapshotLocal()
	if err != nil {
		return nil, nil, errors.WithContext(err, "snapshot local files")
	}

	boardSnap, err = o.snapshotBoard()
	if err != nil {
		return nil, nil, errors.WithContext(err, "snapshot board files")
	}
	return local, boardSnap, nil
}

func (o *Orchestrator) snapshotLocal() (Snapshot, error) {
	return SnapshotLocal(o.localRoot, o.ignore)
}

func (o *Orchestrator) snapshotBoard() (Snapshot, error) {
	entries, err := o.client.List(o.boardRoot)
	if err != nil {
		return nil, err
	}
	return SnapshotBoard(entries), nil
}

// apply runs the plan's actions in order. One action's failure is recorded
// and doesn't abort its siblings. Cancellation takes effect between actions,
// never mid-subprocess-call, so the link is always left in a releasable
// state.
func (o *Orchestrator) apply(ctx context.Context, plan Plan, direction Direction) (Report, error) {
	var report Report
	for _, action := range plan {
		if err := ctx.Err(); err != nil {
			return report, errors.WithContext(err, "sync cancelled")
		}

		err := o.applyOne(action, direction)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"op":   action.Op.String(),
				"path": action.Path,
			}).Warn("Sync action failed. Continuing with the remaining files.")
		}
		report.Record(action, err)
	}
	return report, nil
}

func (o *Orchestrator) applyOne(action Action, direction Direction) error {
	switch action.Op {
	case OpMkdir:
		if direction == BoardToLocal {
			return fs.MkdirAll(o.localPath(action.Path), 0755)
		}
		return o.client.Mkdir(o.boardPath(action.Path))

	case OpWrite:
		if direction == BoardToLocal {
			contents, err := o.client.Read(o.boardPath(action.Path))
			if err != nil {
				return err
			}
			if err := fs.MkdirAll(filepath.Dir(o.localPath(action.Path)), 0755); err != nil {
				return errors.WithContext(err, "create parent dir")
			}
			return afero.WriteFile(fs, o.localPath(action.Path), contents, 0644)
		}

		contents, err := afero.ReadFile(fs, o.localPath(action.Path))
		if err != nil {
			return errors.WithContext(err, "read local file")
		}
		return o.client.Write(o.boardPath(action.Path), contents)

	case OpDelete:
		if direction == BoardToLocal {
			return fs.Remove(o.localPath(action.Path))
		}
		return o.client.Delete(o.boardPath(action.Path))
	}
	return errors.New("unknown sync op")
}

func (o *Orchestrator) boardPath(p string) string {
	return path.Join(o.boardRoot, p)
}

func (o *Orchestrator) localPath(p string) string {
	return filepath.Join(o.localRoot, filepath.FromSlash(p))
}
