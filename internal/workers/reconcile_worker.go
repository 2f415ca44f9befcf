package workers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/internal/models"
	mongorepo "github.com/eventflow/eventflow/internal/repositories/mongo"
	"github.com/eventflow/eventflow/internal/services"
	"github.com/eventflow/eventflow/internal/utils"
)

// ProfileReconciler sweeps recently seen auth subjects and creates any
// missing profile rows. Sign-up is two external calls with no transaction
// between them; this is the retry path for the second one.
type ProfileReconciler struct {
	AuthEvents mongorepo.AuthEventRepository
	Profiles   services.ProfileService
	Logger     *logrus.Logger

	Interval  time.Duration // sweep period, default 5m
	Lookback  time.Duration // how far back to scan, default 24h
	BatchWait time.Duration // pause between subjects, default 0
}

func (w *ProfileReconciler) Start(ctx context.Context) error {
	if w.AuthEvents == nil || w.Profiles == nil {
		return errors.New("ProfileReconciler missing dependency: AuthEvents/Profiles must be set")
	}
	if w.Interval <= 0 {
		w.Interval = 5 * time.Minute
	}
	if w.Lookback <= 0 {
		w.Lookback = 24 * time.Hour
	}
	if w.Logger == nil {
		w.Logger = logrus.New()
	}

	go w.run(ctx)
	return nil
}

func (w *ProfileReconciler) run(ctx context.Context) {
	t := time.NewTicker(w.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.sweep(ctx)
		}
	}
}

func (w *ProfileReconciler) sweep(ctx context.Context) {
	since := time.Now().UTC().Add(-w.Lookback)

	ids, err := w.AuthEvents.RecentUserIDs(ctx, since)
	if err != nil {
		w.Logger.WithError(err).Warn("reconcile sweep: listing auth subjects failed")
		return
	}

	healed := 0
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, err := w.Profiles.GetByID(ctx, id)
		if err == nil {
			continue
		}
		if !utils.IsCode(err, utils.CodeNotFound) {
			w.Logger.WithError(err).WithField("user_id", id).Warn("reconcile sweep: profile lookup failed")
			continue
		}

		email := w.lastKnownEmail(ctx, id)
		if _, err := w.Profiles.EnsureExists(ctx, &models.Profile{
			ID:    id,
			Email: email,
			Role:  models.RoleParticipant,
		}); err != nil {
			w.Logger.WithError(err).WithField("user_id", id).Warn("reconcile sweep: profile create failed")
			continue
		}
		healed++

		if w.BatchWait > 0 {
			time.Sleep(w.BatchWait)
		}
	}

	if healed > 0 {
		w.Logger.WithField("healed", healed).Info("reconcile sweep: created missing profiles")
	}
}

func (w *ProfileReconciler) lastKnownEmail(ctx context.Context, userID string) string {
	evs, err := w.AuthEvents.ListByUser(ctx, userID, 10)
	if err != nil {
		return ""
	}
	for _, ev := range evs {
		if ev.Email != "" {
			return ev.Email
		}
	}
	return ""
}
