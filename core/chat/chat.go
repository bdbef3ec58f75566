package chat

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/user"
)

var (
	// errors
	ErrSelfMessage = errors.New("cannot send a message to yourself")
)

// Message is a direct message between two users.
type Message struct {
	ID         string    `json:"id" db:"id" validate:"required"`
	SenderID   string    `json:"sender_id" db:"sender_id" validate:"required"`
	ReceiverID string    `json:"receiver_id" db:"receiver_id" validate:"required"`
	Message    string    `json:"message" db:"message" validate:"required"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"` // UTC
	Read       bool      `json:"read" db:"is_read"`
}

// Validate checks a stored record, e.g. one read from a backup.
func (m Message) Validate(validate *validator.Validate) error { return validate.Struct(m) }

type NewMessage struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Message    string `json:"message" validate:"required"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.ReceiverID = core.CleanString(nm.ReceiverID)
	nm.Message = core.CleanString(nm.Message)
	return validate.Struct(nm)
}

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message, exec ...core.DBExecutor) (Message, error)
		// QueryConversation returns the messages exchanged between both users, oldest first.
		QueryConversation(ctx context.Context, userID, peerID string, exec ...core.DBExecutor) ([]Message, error)
		// MarkRead flags the messages sent by senderID to receiverID as read.
		MarkRead(ctx context.Context, receiverID, senderID string, exec ...core.DBExecutor) error
		// CountUnread returns the number of unread messages received by userID, per sender.
		CountUnread(ctx context.Context, userID string, exec ...core.DBExecutor) (map[string]int, error)
	}

	Service struct {
		db       core.DB
		repo     Repository
		usrRepo  user.Repository
		validate *validator.Validate
	}
)

func NewService(db core.DB, repo Repository, usrRepo user.Repository, validate *validator.Validate) *Service {
	return &Service{db: db, repo: repo, usrRepo: usrRepo, validate: validate}
}

// Send delivers a trimmed, non-empty message from senderID.
func (svc *Service) Send(ctx context.Context, senderID string, nm NewMessage) (Message, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return Message{}, err
	}
	if nm.ReceiverID == senderID {
		return Message{}, core.NewValidationError(ErrSelfMessage, core.FieldError{Field: "receiver_id", Error: ErrSelfMessage.Error()})
	}
	if _, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: nm.ReceiverID}); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Message{}, core.NewValidationError(err, core.FieldError{Field: "receiver_id", Error: "receiver not found"})
		}
		return Message{}, errors.Wrap(err, "getting receiver")
	}

	return svc.repo.CreateMessage(ctx, Message{
		SenderID:   senderID,
		ReceiverID: nm.ReceiverID,
		Message:    nm.Message,
		Timestamp:  core.NowFunc().UTC(),
	})
}

// Conversation returns the messages between userID and peerID and marks the ones userID received as read.
func (svc *Service) Conversation(ctx context.Context, userID, peerID string) ([]Message, error) {
	var msgs []Message
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.repo.MarkRead(ctx, userID, peerID, tx); err != nil {
			return errors.Wrap(err, "marking messages as read")
		}
		var err error
		msgs, err = svc.repo.QueryConversation(ctx, userID, peerID, tx)
		return errors.Wrap(err, "querying conversation")
	})
	return msgs, err
}

// Unread returns the number of unread messages of userID per sender ID.
func (svc *Service) Unread(ctx context.Context, userID string) (map[string]int, error) {
	return svc.repo.CountUnread(ctx, userID)
}

// Contacts lists the users usr may talk to. Admins reach everyone; teachers and students
// reach the admins and their supervision counterparts.
func (svc *Service) Contacts(ctx context.Context, usr user.User) ([]user.User, error) {
	all, err := svc.usrRepo.QueryUsers(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	contacts := make([]user.User, 0, len(all))
	for _, u := range all {
		if u.ID == usr.ID {
			continue
		}
		switch {
		case usr.IsAdmin(), u.IsAdmin():
		case usr.IsTeacher() && u.IsStudent() && u.TeacherID == usr.ID:
		case usr.IsStudent() && u.IsTeacher() && usr.TeacherID == u.ID:
		default:
			continue
		}
		contacts = append(contacts, u)
	}
	return contacts, nil
}
