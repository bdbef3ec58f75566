package sqliterepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smkremaja/pkl/core"
	"github.com/smkremaja/pkl/core/chat"
)

const messageColumns = "id, sender_id, receiver_id, message, timestamp, is_read"

type chatRepository struct {
	repository
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(exec core.DBExecutor) *chatRepository {
	return &chatRepository{repository{exec: exec}}
}

func (repo chatRepository) CreateMessage(ctx context.Context, msg chat.Message, exec ...core.DBExecutor) (chat.Message, error) {
	msg.ID = newID(msg.ID)
	msg.Timestamp = msg.Timestamp.UTC()
	if err := execNamed(ctx, repo.getExec(exec), insertQuery("messages", messageColumns), msg, nil); err != nil {
		return chat.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo chatRepository) QueryConversation(ctx context.Context, userID, peerID string, exec ...core.DBExecutor) ([]chat.Message, error) {
	q := "SELECT " + messageColumns + " FROM messages" +
		" WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)" +
		" ORDER BY timestamp, rowid"
	msgs := make([]chat.Message, 0)
	if err := repo.getExec(exec).SelectContext(ctx, &msgs, q, userID, peerID, peerID, userID); err != nil {
		return nil, errors.Wrap(err, "querying conversation")
	}
	return msgs, nil
}

func (repo chatRepository) MarkRead(ctx context.Context, receiverID, senderID string, exec ...core.DBExecutor) error {
	q := "UPDATE messages SET is_read = 1 WHERE receiver_id = ? AND sender_id = ? AND is_read = 0"
	if _, err := repo.getExec(exec).ExecContext(ctx, q, receiverID, senderID); err != nil {
		return errors.Wrap(err, "marking messages as read")
	}
	return nil
}

func (repo chatRepository) CountUnread(ctx context.Context, userID string, exec ...core.DBExecutor) (map[string]int, error) {
	var counts []struct {
		SenderID string `db:"sender_id"`
		Count    int    `db:"unread"`
	}
	q := "SELECT sender_id, COUNT(*) AS unread FROM messages WHERE receiver_id = ? AND is_read = 0 GROUP BY sender_id"
	if err := repo.getExec(exec).SelectContext(ctx, &counts, q, userID); err != nil {
		return nil, errors.Wrap(err, "counting unread messages")
	}
	unread := make(map[string]int, len(counts))
	for _, c := range counts {
		unread[c.SenderID] = c.Count
	}
	return unread, nil
}

// allMessages lists every message in insertion order.
func (repo chatRepository) allMessages(ctx context.Context, exec core.DBExecutor) ([]chat.Message, error) {
	msgs := make([]chat.Message, 0)
	if err := exec.SelectContext(ctx, &msgs, "SELECT "+messageColumns+" FROM messages ORDER BY rowid"); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	return msgs, nil
}
