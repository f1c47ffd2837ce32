// ABOUTME: Task form saves, stage moves and comment/attachment operations
// ABOUTME: Each operation reads the task, modifies a copy and writes it back through the repository
package board

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
)

// MaxAttachmentBytes is the largest accepted upload.
const MaxAttachmentBytes = 2 * 1024 * 1024

// Comment author shown for comments added locally.
const (
	CommentAuthor   = "You"
	CommentInitials = "YO"
)

// displayDate mirrors a short US locale date.
const displayDate = "1/2/2006"

var ErrAttachmentTooLarge = errors.New("file size exceeds 2MB limit")

// Upload is a file offered as an attachment.
type Upload struct {
	Name string
	Type string
	Data []byte
}

// SaveTask is the form save path. It derives the priority color from the chosen priority.
// Edits keep the stored activity, and keep the stored image unless a new one is supplied.
func SaveTask(ctx context.Context, repo store.TaskRepository, form models.Task) (models.Task, error) {
	form.PriorityColor = models.PriorityColor(form.Priority)

	if form.ID == "" {
		return repo.Create(ctx, form)
	}

	original, err := repo.Get(ctx, form.ID)
	if err != nil {
		return models.Task{}, err
	}
	form.Activity = original.Activity
	if form.Image == "" {
		form.Image = original.Image
	}
	if form.CreatedOn == "" {
		form.CreatedOn = original.CreatedOn
	}
	if err := repo.Update(ctx, form); err != nil {
		return models.Task{}, err
	}
	return repo.Get(ctx, form.ID)
}

// MoveTask persists a stage change without any local snapshot.
func MoveTask(ctx context.Context, repo store.TaskRepository, id string, stage models.Stage) (models.Task, error) {
	if !stage.Valid() {
		return models.Task{}, fmt.Errorf("%w: unknown stage %q", store.ErrInvalid, stage)
	}
	t, err := repo.Get(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	t.Stage = stage
	if err := repo.Update(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// AddComment prepends a comment to the task's activity.
func AddComment(ctx context.Context, repo store.TaskRepository, id, text string, now time.Time) (models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Comment{}, fmt.Errorf("%w: comment text is required", store.ErrInvalid)
	}

	t, err := repo.Get(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}

	c := models.Comment{
		ID:       uuid.NewString(),
		Text:     text,
		Author:   CommentAuthor,
		Date:     now.Format(displayDate),
		Initials: CommentInitials,
	}
	t.Activity.CommentsList = append([]models.Comment{c}, t.Activity.CommentsList...)
	t.Activity.Comments = len(t.Activity.CommentsList)

	if err := repo.Update(ctx, t); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// AddAttachment stores the file as a base64 data URL at the front of the task's attachments.
// Files over MaxAttachmentBytes are rejected before the repository is touched.
func AddAttachment(ctx context.Context, repo store.TaskRepository, id string, file Upload, now time.Time) (models.Attachment, error) {
	if len(file.Data) > MaxAttachmentBytes {
		return models.Attachment{}, ErrAttachmentTooLarge
	}
	if strings.TrimSpace(file.Name) == "" {
		return models.Attachment{}, fmt.Errorf("%w: file name is required", store.ErrInvalid)
	}

	t, err := repo.Get(ctx, id)
	if err != nil {
		return models.Attachment{}, err
	}

	mime := file.Type
	if mime == "" {
		mime = http.DetectContentType(file.Data)
	}
	a := models.Attachment{
		ID:   uuid.NewString(),
		Name: file.Name,
		Size: fmt.Sprintf("%.1f KB", float64(len(file.Data))/1024),
		Date: now.Format(displayDate),
		Type: mime,
		Data: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(file.Data),
	}
	t.Activity.AttachmentsList = append([]models.Attachment{a}, t.Activity.AttachmentsList...)
	t.Activity.Attachments = len(t.Activity.AttachmentsList)

	if err := repo.Update(ctx, t); err != nil {
		return models.Attachment{}, err
	}
	return a, nil
}

// DeleteAttachment drops one attachment. An unknown attachment id leaves the task untouched.
func DeleteAttachment(ctx context.Context, repo store.TaskRepository, id, attachmentID string) error {
	t, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	kept := make([]models.Attachment, 0, len(t.Activity.AttachmentsList))
	for _, a := range t.Activity.AttachmentsList {
		if a.ID != attachmentID {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(t.Activity.AttachmentsList) {
		return nil
	}
	t.Activity.AttachmentsList = kept
	t.Activity.Attachments = len(kept)
	return repo.Update(ctx, t)
}
