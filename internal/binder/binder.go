// Package binder maintains the single source of truth for "who is logged in
// and what is their profile". It fronts the external auth service, republishes
// session changes as AuthState snapshots, and owns the only writer to that
// state. One Binder per running client, passed by reference; no globals.
package binder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/internal/authext"
	"github.com/eventflow/eventflow/internal/models"
	"github.com/eventflow/eventflow/internal/utils"
)

// ProfileStore is the slice of the profile service the binder needs: a point
// lookup by subject id and an idempotent ensure-exists used both at sign-up
// and at first session resolution, so a missing profile self-heals.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	EnsureExists(ctx context.Context, p *models.Profile) (*models.Profile, error)
}

const (
	defaultResolveTimeout = 10 * time.Second
	defaultFetchTimeout   = 10 * time.Second
)

type Binder struct {
	auth     authext.Client
	notifier authext.Notifier
	store    authext.TokenStore
	profiles ProfileStore
	log      *logrus.Logger

	resolveTimeout time.Duration
	fetchTimeout   time.Duration

	mu         sync.Mutex
	state      AuthState
	seq        uint64 // bumps on every applied session event; stale fetches lose
	profileErr error
	subs       map[int]chan AuthState
	nextSub    int

	ctx     context.Context
	stop    func()
	started bool
	wg      sync.WaitGroup
}

type Option func(*Binder)

// WithResolveTimeout bounds the initial session resolution so Loading cannot
// hang indefinitely.
func WithResolveTimeout(d time.Duration) Option {
	return func(b *Binder) { b.resolveTimeout = d }
}

func WithFetchTimeout(d time.Duration) Option {
	return func(b *Binder) { b.fetchTimeout = d }
}

func New(auth authext.Client, notifier authext.Notifier, store authext.TokenStore, profiles ProfileStore, log *logrus.Logger, opts ...Option) *Binder {
	b := &Binder{
		auth:           auth,
		notifier:       notifier,
		store:          store,
		profiles:       profiles,
		log:            log,
		resolveTimeout: defaultResolveTimeout,
		fetchTimeout:   defaultFetchTimeout,
		state:          AuthState{Loading: true},
		subs:           map[int]chan AuthState{},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Start resolves any persisted session and subscribes to session-change
// notifications. Exactly one subscription is active until Close.
func (b *Binder) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return errors.New("binder: already started")
	}
	b.started = true
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	b.ctx = ctx

	events, stopSub, err := b.notifier.Subscribe(ctx)
	if err != nil {
		cancel()
		return err
	}
	b.stop = func() {
		stopSub()
		cancel()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.resolveInitial(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				b.apply(ev)
			}
		}
	}()
	return nil
}

// Close releases the notification subscription and waits for in-flight
// profile fetches, so no state updates leak into a torn-down binder.
func (b *Binder) Close() {
	if b.stop != nil {
		b.stop()
	}
	b.wg.Wait()
}

// State returns the last-published snapshot. Safe for concurrent readers.
func (b *Binder) State() AuthState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ProfileErr reports the last profile-fetch failure for the current session,
// nil once a fetch succeeds. Pair with RetryProfile.
func (b *Binder) ProfileErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profileErr
}

// Subscribe returns a channel of AuthState snapshots and a cancel func. Slow
// consumers see the latest snapshot; intermediate ones may be dropped.
func (b *Binder) Subscribe() (<-chan AuthState, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	ch := make(chan AuthState, 8)
	b.subs[id] = ch
	ch <- b.state

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// SignIn delegates credential verification to the auth service. On failure
// the state is unchanged and the service's reason is returned as an
// *authext.AuthError; nothing is retried automatically.
func (b *Binder) SignIn(ctx context.Context, email, password string) error {
	sess, err := b.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}
	b.apply(authext.SessionEvent{Kind: authext.EventSignedIn, Session: sess})
	return nil
}

// SignUp creates the account at the auth service, then the profile row keyed
// by the new subject id. The two calls are not transactional: if the insert
// fails the profile self-heals at the next session resolution via
// EnsureExists.
func (b *Binder) SignUp(ctx context.Context, email, password, fullName string, role models.Role) error {
	if !role.Valid() {
		return utils.E(utils.CodeInvalidArgument, "Binder.SignUp", "invalid role", nil)
	}

	sess, err := b.auth.SignUp(ctx, email, password, authext.SignUpData{
		FullName: fullName,
		Role:     string(role),
	})
	if err != nil {
		return err
	}

	if sess.UserID != "" {
		_, perr := b.profiles.EnsureExists(ctx, &models.Profile{
			ID:       sess.UserID,
			Email:    email,
			FullName: fullName,
			Role:     role,
		})
		if perr != nil {
			b.log.WithError(perr).WithField("user_id", sess.UserID).
				Warn("profile create after sign-up failed; will self-heal on next resolution")
		}
	}

	if sess.AccessToken == "" {
		// deployment requires email confirmation; no session until then
		return nil
	}
	b.apply(authext.SessionEvent{Kind: authext.EventSignedIn, Session: sess})
	return nil
}

// SignInWithGoogle returns the OAuth redirect entry point. Control leaves the
// application; completion arrives through the session-change subscription.
func (b *Binder) SignInWithGoogle(redirectTo string) string {
	return b.auth.AuthorizeURL("google", redirectTo)
}

// ResetPassword reports success whether or not the email is registered, so
// the operation cannot be used to enumerate accounts. Only transport-level
// failures surface.
func (b *Binder) ResetPassword(ctx context.Context, email string) error {
	if err := b.auth.SendPasswordReset(ctx, email); err != nil {
		if authext.IsTransport(err) {
			return err
		}
		b.log.WithError(err).Debug("password reset reported as success")
	}
	return nil
}

// SignOut clears the local state immediately and revokes the token at the
// auth service best-effort in the background.
func (b *Binder) SignOut(ctx context.Context) error {
	b.mu.Lock()
	sess := b.state.Session
	b.mu.Unlock()

	if err := b.store.Clear(); err != nil {
		b.log.WithError(err).Warn("clearing persisted session failed")
	}
	b.apply(authext.SessionEvent{Kind: authext.EventSignedOut})

	if sess != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := b.auth.SignOut(rctx, sess.AccessToken); err != nil {
				b.log.WithError(err).Warn("remote sign-out failed")
			}
		}()
	}
	return nil
}

// RetryProfile re-runs the profile fetch for the current session. The
// caller-visible counterpart to ProfileErr.
func (b *Binder) RetryProfile(ctx context.Context) error {
	b.mu.Lock()
	sess := b.state.Session
	seq := b.seq
	b.mu.Unlock()

	if sess == nil {
		return utils.E(utils.CodeUnauthorized, "Binder.RetryProfile", "no active session", nil)
	}
	return b.fetchProfile(ctx, seq, sess)
}

func (b *Binder) resolveInitial(ctx context.Context) {
	rctx, cancel := context.WithTimeout(ctx, b.resolveTimeout)
	defer cancel()

	sess, err := b.store.Load()
	if err != nil || sess == nil || sess.RefreshToken == "" {
		b.settleUnauthenticated()
		return
	}

	refreshed, err := b.auth.RefreshSession(rctx, sess.RefreshToken)
	if err != nil {
		b.log.WithError(err).Info("persisted session did not resolve; starting signed out")
		_ = b.store.Clear()
		b.settleUnauthenticated()
		return
	}
	b.apply(authext.SessionEvent{Kind: authext.EventSignedIn, Session: refreshed})
}

// settleUnauthenticated ends the Resolving phase unless a session event beat
// the resolution (an OAuth completion can land first).
func (b *Binder) settleUnauthenticated() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == 0 {
		b.state = AuthState{}
		b.publishLocked()
	}
}

// apply installs a session event. Events are serialized under the mutex in
// arrival order; the sequence number taken here decides which in-flight
// profile fetch is allowed to publish: the latest session wins.
func (b *Binder) apply(ev authext.SessionEvent) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.profileErr = nil

	if ev.Session == nil {
		b.state = AuthState{}
		b.publishLocked()
		b.mu.Unlock()
		return
	}

	b.state.Session = ev.Session
	b.state.Loading = false
	if b.state.Profile != nil && b.state.Profile.ID != ev.Session.UserID {
		b.state.Profile = nil
	}
	b.publishLocked()
	b.mu.Unlock()

	if err := b.store.Save(ev.Session); err != nil {
		b.log.WithError(err).Warn("persisting session failed")
	}

	sess := ev.Session
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx := b.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		_ = b.fetchProfile(ctx, seq, sess)
	}()
}

func (b *Binder) fetchProfile(ctx context.Context, seq uint64, sess *authext.Session) error {
	fctx, cancel := context.WithTimeout(ctx, b.fetchTimeout)
	defer cancel()

	p, err := b.profiles.GetByID(fctx, sess.UserID)
	if err != nil && utils.IsCode(err, utils.CodeNotFound) {
		// sign-up whose profile insert was lost, or a backend-side account
		// with no row yet: create it now
		p, err = b.profiles.EnsureExists(fctx, &models.Profile{
			ID:    sess.UserID,
			Email: sess.Email,
			Role:  models.RoleParticipant,
		})
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq != seq {
		// a newer session event has been applied; drop this result
		return nil
	}
	if err != nil {
		b.profileErr = err
		b.log.WithError(err).WithField("user_id", sess.UserID).Warn("profile fetch failed")
		b.publishLocked()
		return err
	}
	b.profileErr = nil
	b.state.Profile = p
	b.publishLocked()
	return nil
}

// publishLocked fans the current state out to subscribers. Callers hold b.mu.
func (b *Binder) publishLocked() {
	for _, ch := range b.subs {
		select {
		case ch <- b.state:
		default:
			// drop the oldest snapshot so the latest always lands
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- b.state:
			default:
			}
		}
	}
}
