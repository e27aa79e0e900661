package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"collection-engine/core/diff"
	"collection-engine/core/dispatch"
	"collection-engine/core/errs"
	"collection-engine/core/interaction"
	"collection-engine/core/logger"
	"collection-engine/core/reconcile"
	"collection-engine/core/snapshot"
	"collection-engine/feature/document"
	"collection-engine/feature/expansion"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned for an unknown session ID.
	ErrNotFound = errors.New("collection not found")
	// ErrNoArchive is returned when an operation needs object storage and
	// none is configured.
	ErrNoArchive = errors.New("no document archive configured")
	// ErrInvalidDocument wraps document decoding failures.
	ErrInvalidDocument = errors.New("invalid document")
)

// Service manages open collection sessions.
type Service struct {
	cfg        interaction.Config
	defaults   func(int) snapshot.ExpansionState
	archive    *document.Archive
	pager      Pager
	expansions expansion.Repository
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewService creates a service. archive and expansions may be nil, which
// disables export, refresh, paging and persisted toggles.
func NewService(cfg interaction.Config, archive *document.Archive, expansions expansion.Repository, logger *zap.Logger) (*Service, error) {
	defaults, err := cfg.Defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		cfg:        cfg,
		defaults:   defaults,
		archive:    archive,
		expansions: expansions,
		logger:     logger,
		sessions:   make(map[string]*session),
	}
	if archive != nil {
		s.pager = ArchivePager{Archive: archive}
	}
	return s, nil
}

// SetPager replaces the source of near-end pages.
func (s *Service) SetPager(p Pager) {
	s.pager = p
}

func (s *Service) get(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

// Open starts a session showing doc.
func (s *Service) Open(ctx context.Context, doc *document.Document) (*State, error) {
	inputs, err := doc.Inputs()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	id := uuid.NewString()
	name := doc.Name
	if name == "" {
		name = id
	}
	l := logger.WithCollection(s.logger, id)

	var previous *snapshot.Snapshot[string, any]
	if s.expansions != nil {
		previous, err = expansion.Seed(ctx, s.expansions, name)
		if err != nil {
			l.Warn("Could not restore expansions", zap.String("name", name), zap.Error(err))
			previous = nil
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:       id,
		name:     name,
		queue:    dispatch.NewQueue(),
		renderer: reconcile.NewMemoryRenderer[string](),
		cancel:   cancel,
	}
	sess.ctrl = interaction.New[string, any](sess.queue, sess.renderer, interaction.Options[string, any]{
		Threshold: s.cfg.NearEndThreshold,
		Defaults:  s.defaults,
		Previous:  previous,
		LoadMore:  s.loadMore(sess),
		Refresh:   s.refresh(sess),
		Logger:    l,
	})
	go func() {
		if err := sess.queue.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			l.Error("Session queue stopped", zap.Error(err))
		}
	}()

	var (
		st     *State
		updErr error
	)
	err = sess.do(ctx, func() {
		if _, updErr = sess.ctrl.Update(inputs); updErr == nil {
			st = sess.state(false)
		}
	})
	if err == nil {
		err = updErr
	}
	if err != nil {
		sess.close()
		return nil, err
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	l.Info("Collection opened", zap.String("name", name), zap.Int("sections", len(inputs)))
	return st, nil
}

// OpenArchived starts a session showing an archived document.
func (s *Service) OpenArchived(ctx context.Context, name string) (*State, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}
	doc, err := s.archive.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, doc)
}

// Get returns the state of a session.
func (s *Service) Get(ctx context.Context, id string, all bool) (*State, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	var st *State
	if err := sess.do(ctx, func() { st = sess.state(all) }); err != nil {
		return nil, err
	}
	return st, nil
}

// Sessions returns the IDs of the open sessions.
func (s *Service) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Replace shows new data in a session and returns the applied script.
func (s *Service) Replace(ctx context.Context, id string, doc *document.Document) (diff.Script[string], error) {
	sess, err := s.get(id)
	if err != nil {
		return diff.Script[string]{}, err
	}
	inputs, err := doc.Inputs()
	if err != nil {
		return diff.Script[string]{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	if !s.cfg.DiffAsync {
		var (
			script diff.Script[string]
			updErr error
		)
		if err := sess.do(ctx, func() { script, updErr = sess.ctrl.Update(inputs) }); err != nil {
			return diff.Script[string]{}, err
		}
		return script, updErr
	}

	type result struct {
		script diff.Script[string]
		err    error
	}
	done := make(chan result, 1)
	err = sess.do(ctx, func() {
		sess.ctrl.UpdateAsync(inputs, func(script diff.Script[string], err error) {
			done <- result{script, err}
		})
	})
	if err != nil {
		return diff.Script[string]{}, err
	}
	select {
	case r := <-done:
		return r.script, r.err
	case <-sess.queue.Done():
		// Close completes pending updates before the queue stops.
		select {
		case r := <-done:
			return r.script, r.err
		default:
			return diff.Script[string]{}, dispatch.ErrClosed
		}
	case <-ctx.Done():
		return diff.Script[string]{}, ctx.Err()
	}
}

// Toggle flips a section, or sets it to state when state is not
// Unspecified, and persists the session's toggles.
func (s *Service) Toggle(ctx context.Context, id, section string, state snapshot.ExpansionState) (diff.Script[string], error) {
	sess, err := s.get(id)
	if err != nil {
		return diff.Script[string]{}, err
	}

	var (
		script  diff.Script[string]
		toggles map[string]snapshot.ExpansionState
		opErr   error
	)
	err = sess.do(ctx, func() {
		if state == snapshot.Unspecified {
			script, opErr = sess.ctrl.Toggle(section)
		} else {
			script, opErr = sess.ctrl.SetExpansion(section, state)
		}
		toggles = sess.ctrl.Current().Toggles()
	})
	if err != nil {
		return diff.Script[string]{}, err
	}
	if opErr != nil {
		return diff.Script[string]{}, opErr
	}

	if s.expansions != nil {
		if err := s.expansions.Save(ctx, sess.name, toggles); err != nil {
			logger.WithCollection(s.logger, id).Warn("Could not persist expansions", zap.Error(err))
		}
	}
	return script, nil
}

// Drag commits a drag from src to dst. The drag runs as a full session on
// the queue: it is refused when the source cannot be dragged or the
// destination is forbidden or out of range, and nothing moves in that case.
func (s *Service) Drag(ctx context.Context, id string, src, dst snapshot.Location) (interaction.MoveResult[string], error) {
	sess, err := s.get(id)
	if err != nil {
		return interaction.MoveResult[string]{}, err
	}
	var (
		res   interaction.MoveResult[string]
		opErr error
	)
	err = sess.do(ctx, func() {
		cur := sess.ctrl.Current()
		if opErr = outOfRange(cur, src, 0); opErr != nil {
			return
		}
		if !sess.ctrl.BeginDrag(src) {
			opErr = &errs.InvalidStateError{Op: "collection.Drag", Reason: "item cannot be dragged"}
			return
		}
		switch sess.ctrl.UpdateDrag(src, dst).Operation {
		case interaction.DropForbid:
			sess.ctrl.CancelDrag()
			opErr = &errs.InvalidStateError{Op: "collection.Drag", Reason: "destination refuses the item"}
			return
		case interaction.DropCancel:
			sess.ctrl.CancelDrag()
			if opErr = outOfRange(cur, dst, 1); opErr == nil {
				opErr = &errs.InvalidStateError{Op: "collection.Drag", Reason: "drop cancelled"}
			}
			return
		}
		res, opErr = sess.ctrl.CommitDrag(src, dst)
	})
	if err != nil {
		return interaction.MoveResult[string]{}, err
	}
	return res, opErr
}

// outOfRange reports loc when it does not address a visible slot. extra is 1
// for destinations, which may sit one past the last item.
func outOfRange(cur *snapshot.Snapshot[string, any], loc snapshot.Location, extra int) error {
	if loc.Section < 0 || loc.Section >= cur.Len() {
		return &errs.IndexOutOfRangeError{Op: "collection.Drag", Section: loc.Section, Item: -1, Limit: cur.Len()}
	}
	if n := cur.VisibleCount(loc.Section) + extra; loc.Item < 0 || loc.Item >= n {
		return &errs.IndexOutOfRangeError{Op: "collection.Drag", Section: loc.Section, Item: loc.Item, Limit: n}
	}
	return nil
}

// NearEnd reports a visible item and returns whether a page load started.
func (s *Service) NearEnd(ctx context.Context, id string, section, item, count int) (bool, error) {
	sess, err := s.get(id)
	if err != nil {
		return false, err
	}
	var (
		started bool
		opErr   error
	)
	if err := sess.do(ctx, func() { started, opErr = sess.ctrl.OnNearEnd(section, item, count) }); err != nil {
		return false, err
	}
	return started, opErr
}

// Refresh starts reloading the session's document from the archive.
func (s *Service) Refresh(ctx context.Context, id string) (bool, error) {
	sess, err := s.get(id)
	if err != nil {
		return false, err
	}
	if s.archive == nil {
		return false, ErrNoArchive
	}
	var started bool
	if err := sess.do(ctx, func() { started = sess.ctrl.BeginRefresh() }); err != nil {
		return false, err
	}
	return started, nil
}

// Export archives the session's current data under name, or the session name
// when name is empty.
func (s *Service) Export(ctx context.Context, id, name string) (string, error) {
	sess, err := s.get(id)
	if err != nil {
		return "", err
	}
	if s.archive == nil {
		return "", ErrNoArchive
	}
	if name == "" {
		name = sess.name
	}
	var cur *snapshot.Snapshot[string, any]
	if err := sess.do(ctx, func() { cur = sess.ctrl.Current() }); err != nil {
		return "", err
	}
	return s.archive.Save(ctx, name, document.FromSnapshot(name, cur))
}

// Archived lists the names of the archived documents.
func (s *Service) Archived(ctx context.Context) ([]string, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}
	return s.archive.List(ctx)
}

// DeleteArchived removes archived documents together with their persisted
// section toggles. Open sessions keep their data.
func (s *Service) DeleteArchived(ctx context.Context, names ...string) error {
	if s.archive == nil {
		return ErrNoArchive
	}
	if err := s.archive.Delete(ctx, names...); err != nil {
		return err
	}
	if s.expansions == nil {
		return nil
	}
	var failed []error
	for _, name := range names {
		if err := s.expansions.Delete(ctx, name); err != nil {
			failed = append(failed, fmt.Errorf("failed to delete expansions of %s: %w", name, err))
		}
	}
	return errors.Join(failed...)
}

// Close ends a session.
func (s *Service) Close(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sess.close()
	logger.WithCollection(s.logger, id).Info("Collection closed")
	return nil
}

// Shutdown closes every session.
func (s *Service) Shutdown() {
	for _, id := range s.Sessions() {
		_ = s.Close(id)
	}
}

// Diff computes the script between two documents without opening a session.
func (s *Service) Diff(old, next *document.Document) (diff.Script[string], error) {
	a, err := old.Build(s.defaults, nil)
	if err != nil {
		return diff.Script[string]{}, fmt.Errorf("%w: old: %v", ErrInvalidDocument, err)
	}
	b, err := next.Build(s.defaults, a)
	if err != nil {
		return diff.Script[string]{}, fmt.Errorf("%w: new: %v", ErrInvalidDocument, err)
	}
	return diff.Diff(a, b)
}

func (s *Service) loadMore(sess *session) func(context.Context) error {
	return func(ctx context.Context) error {
		if s.pager == nil {
			return ErrNoArchive
		}
		var page int
		if err := sess.do(ctx, func() { page = sess.pages + 1 }); err != nil {
			return err
		}
		doc, err := s.pager.Page(ctx, sess.name, page)
		if err != nil {
			return err
		}
		extra, err := doc.Inputs()
		if err != nil {
			return fmt.Errorf("%w: page %d: %v", ErrInvalidDocument, page, err)
		}

		var updErr error
		err = sess.do(ctx, func() {
			merged := appendPage(sess.ctrl.Current().Inputs(), extra)
			if _, updErr = sess.ctrl.Update(merged); updErr == nil {
				sess.pages = page
			}
		})
		if err != nil {
			return err
		}
		return updErr
	}
}

func (s *Service) refresh(sess *session) func(context.Context) error {
	return func(ctx context.Context) error {
		doc, err := s.archive.Load(ctx, sess.name)
		if err != nil {
			return err
		}
		inputs, err := doc.Inputs()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		var updErr error
		err = sess.do(ctx, func() {
			if _, updErr = sess.ctrl.Update(inputs); updErr == nil {
				sess.pages = 0
			}
		})
		if err != nil {
			return err
		}
		return updErr
	}
}
