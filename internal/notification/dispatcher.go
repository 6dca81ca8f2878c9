package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/model"
	"UniJobBoard-backend/internal/utilities"
)

const broadcastBatchSize = 100

// Dispatcher sends the email and writes the in-app notification for each
// engine event. The inbox row is written first and each effect runs under its
// own timeout, so a stalled mailer cannot cost the row. Every returned error
// is marked apperror.ErrNotificationFailure and is meant to be logged, not
// surfaced: the write that triggered the event has already committed.
type Dispatcher struct {
	DB     *database.DBinstanceStruct
	Mailer Mailer
	// Timeout bounds each effect. Zero uses utilities.DefaultSideEffectTimeout.
	Timeout time.Duration

	inflight sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A nil mailer disables email.
func NewDispatcher(db *database.DBinstanceStruct, mailer Mailer) *Dispatcher {
	return &Dispatcher{
		DB:     db,
		Mailer: mailer,
	}
}

// ApplicationReceived tells the job owner about a new application.
func (d *Dispatcher) ApplicationReceived(ctx context.Context, job *model.JobPosting, app *model.Application) error {
	var errs []error

	title := "New application received"
	message := fmt.Sprintf("A new application was submitted for %q.", job.Title)

	errs = append(errs, d.persist(ctx, &model.Notification{
		UserID:  job.PostedBy,
		Title:   title,
		Message: message,
		Type:    model.NotificationApplicationReceived,
	}))

	owner, err := d.profile(ctx, job.PostedBy)
	if err != nil {
		errs = append(errs, err)
	} else if owner.EmailOptOut {
		log.Debug().Str("user_id", owner.ID.String()).Msg("owner opted out of email")
	} else {
		data := map[string]string{"JobTitle": job.Title}
		if applicant, err := d.profile(ctx, app.ApplicantID); err == nil {
			data["ApplicantName"] = applicant.FullName
		}
		errs = append(errs, d.mail(ctx, Message{
			To:       owner.Email,
			Name:     owner.FullName,
			Subject:  title,
			Template: model.NotificationApplicationReceived,
			Data:     data,
		}))
	}

	return failure(errs, "application_received")
}

// StatusUpdate tells the applicant their application moved to a new status.
// Nothing is sent for pending.
func (d *Dispatcher) StatusUpdate(ctx context.Context, app *model.Application, jobTitle string) error {
	if app.Status == model.ApplicationStatusPending {
		return nil
	}

	var errs []error

	title := "Application status updated"
	message := fmt.Sprintf("Your application for %q is now %s.", jobTitle, app.Status)

	errs = append(errs, d.persist(ctx, &model.Notification{
		UserID:  app.ApplicantID,
		Title:   title,
		Message: message,
		Type:    model.NotificationStatusUpdate,
	}))

	applicant, err := d.profile(ctx, app.ApplicantID)
	if err != nil {
		errs = append(errs, err)
	} else if !applicant.EmailOptOut {
		errs = append(errs, d.mail(ctx, Message{
			To:       applicant.Email,
			Name:     applicant.FullName,
			Subject:  title,
			Template: model.NotificationStatusUpdate,
			Data: map[string]string{
				"JobTitle": jobTitle,
				"Status":   string(app.Status),
			},
		}))
	}

	return failure(errs, "status_update")
}

// AnnounceJob runs NewJob in the background on a context detached from ctx and
// returns at once. Failures are logged. Wait blocks until every announcement
// has finished.
func (d *Dispatcher) AnnounceJob(ctx context.Context, job *model.JobPosting) {
	snapshot := *job
	detached := context.WithoutCancel(ctx)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		if err := d.NewJob(detached, &snapshot); err != nil {
			log.Warn().Err(err).Str("job_id", snapshot.ID.String()).Msg("new job broadcast failed")
		}
	}()
}

// Wait blocks until every pending AnnounceJob has finished.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// NewJob broadcasts a new posting to every student without a department or in
// the posting's department. Email goes out as one batch, skipping students who
// opted out. Every recipient gets an inbox entry.
func (d *Dispatcher) NewJob(ctx context.Context, job *model.JobPosting) error {
	var students []model.Profile
	if err := d.DB.WithContext(ctx).
		Where("role = ?", model.RoleStudent).
		Where("department IS NULL OR department = '' OR department = ?", job.Department).
		Find(&students).Error; err != nil {
		return failure([]error{apperror.Database(err, "loading broadcast recipients")}, "new_job")
	}
	if len(students) == 0 {
		return nil
	}

	title := "New job posted"
	message := fmt.Sprintf("%s posted a new position: %q.", job.Department, job.Title)
	data := map[string]string{
		"JobTitle":   job.Title,
		"Department": job.Department,
	}
	if job.ApplicationDeadline != nil {
		data["Deadline"] = job.ApplicationDeadline.Format("Jan 02, 2006")
	}

	rows := make([]model.Notification, 0, len(students))
	msgs := make([]Message, 0, len(students))
	for _, s := range students {
		rows = append(rows, model.Notification{
			UserID:  s.ID,
			Title:   title,
			Message: message,
			Type:    model.NotificationNewJob,
		})
		if s.EmailOptOut {
			continue
		}
		msgs = append(msgs, Message{
			To:       s.Email,
			Name:     s.FullName,
			Subject:  title,
			Template: model.NotificationNewJob,
			Data:     data,
		})
	}

	var errs []error
	err := utilities.BestEffort(ctx, d.Timeout, func(ctx context.Context) error {
		return d.DB.WithContext(ctx).CreateInBatches(&rows, broadcastBatchSize).Error
	})
	if err != nil {
		errs = append(errs, apperror.Database(err, "saving new job notifications"))
	}
	if d.Mailer != nil && len(msgs) > 0 {
		err := utilities.BestEffort(ctx, d.Timeout, func(ctx context.Context) error {
			return d.Mailer.SendBatch(ctx, msgs)
		})
		if err != nil {
			errs = append(errs, errors.Wrap(err, "sending new job batch"))
		}
	}

	return failure(errs, "new_job")
}

// DeadlineReminder reminds one user of an approaching deadline. Nothing in the
// engine schedules it yet; callers pick the recipients.
func (d *Dispatcher) DeadlineReminder(ctx context.Context, userID uuid.UUID, job *model.JobPosting) error {
	var errs []error

	deadline := ""
	if job.ApplicationDeadline != nil {
		deadline = job.ApplicationDeadline.Format("Jan 02, 2006")
	}
	title := "Application deadline approaching"

	errs = append(errs, d.persist(ctx, &model.Notification{
		UserID:  userID,
		Title:   title,
		Message: fmt.Sprintf("Applications for %q close on %s.", job.Title, deadline),
		Type:    model.NotificationDeadlineReminder,
	}))

	user, err := d.profile(ctx, userID)
	if err != nil {
		errs = append(errs, err)
	} else if !user.EmailOptOut {
		errs = append(errs, d.mail(ctx, Message{
			To:       user.Email,
			Name:     user.FullName,
			Subject:  title,
			Template: model.NotificationDeadlineReminder,
			Data:     map[string]string{"JobTitle": job.Title, "Deadline": deadline},
		}))
	}

	return failure(errs, "deadline_reminder")
}

func (d *Dispatcher) profile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var p model.Profile
	if err := d.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFoundf("profile %s", id)
		}
		return nil, apperror.Database(err, "loading recipient profile")
	}
	return &p, nil
}

func (d *Dispatcher) mail(ctx context.Context, msg Message) error {
	if d.Mailer == nil {
		return nil
	}
	return utilities.BestEffort(ctx, d.Timeout, func(ctx context.Context) error {
		return d.Mailer.Send(ctx, msg)
	})
}

func (d *Dispatcher) persist(ctx context.Context, n *model.Notification) error {
	err := utilities.BestEffort(ctx, d.Timeout, func(ctx context.Context) error {
		return d.DB.WithContext(ctx).Create(n).Error
	})
	return apperror.Database(err, "saving notification")
}

func failure(errs []error, event string) error {
	err := errors.Join(errs...)
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, "%s notification", event), apperror.ErrNotificationFailure)
}
