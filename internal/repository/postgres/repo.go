package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/skillhub/chat-service/internal/config"
	"github.com/skillhub/chat-service/internal/model"
)

type key string

const keyConn = key("conn")

// querier is satisfied by both *sqlx.DB and *sqlx.Tx, so every query method
// works inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type Repository struct {
	connection *sqlx.DB
	strategy   directoryStrategy
}

func New(cfg *config.Config) *Repository {
	conStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.Host, cfg.Postgres.Port)

	conn, err := sqlx.Connect("postgres", conStr)
	if err != nil {
		log.Fatal("error connect: ", err)
	}

	r := &Repository{
		connection: conn,
	}
	r.strategy = r.detectStrategy()

	return r
}

func (r *Repository) Close() {
	_ = r.connection.Close()
}

// detectStrategy probes pg_proc once at startup and picks the stored-procedure
// strategy only when every procedure is installed, so deployments without them
// never pay a failed call per request.
func (r *Repository) detectStrategy() directoryStrategy {
	var count int
	err := r.connection.Get(&count,
		`SELECT COUNT(DISTINCT proname) FROM pg_proc WHERE proname = ANY($1)`,
		pq.Array(procedureNames))
	if err != nil {
		log.Printf("failed to probe stored procedures, using fallback queries: %v", err)
		return fallbackStrategy{}
	}

	if count == len(procedureNames) {
		log.Print("conversation stored procedures detected")
		return procStrategy{}
	}

	log.Printf("found %d of %d conversation stored procedures, using fallback queries", count, len(procedureNames))
	return fallbackStrategy{}
}

func (r *Repository) UsesProcedures() bool {
	_, ok := r.strategy.(procStrategy)
	return ok
}

func (r *Repository) WithTx(ctx context.Context, cb func(ctx context.Context) error) error {
	transaction, err := r.connection.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	if err = cb(context.WithValue(ctx, keyConn, transaction)); err != nil {
		_ = transaction.Rollback()
		return err
	}

	return transaction.Commit()
}

// Chk returns the transaction bound to ctx if there is one, otherwise the
// shared connection pool.
func (r *Repository) Chk(ctx context.Context) querier {
	if transaction, ok := ctx.Value(keyConn).(*sqlx.Tx); ok {
		return transaction
	}
	return r.connection
}

// canonicalPair orders two user ids so the unordered pair (a, b) always maps
// to the same conversation row regardless of argument order.
func canonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func (r *Repository) GetOrCreateConversation(ctx context.Context, userA, userB string) (string, error) {
	userOne, userTwo := canonicalPair(userA, userB)
	return r.strategy.getOrCreateConversation(ctx, r.Chk(ctx), userOne, userTwo)
}

func (r *Repository) GetUserConversations(ctx context.Context, userID string, limit, offset int32) (*model.ConversationPreviewList, error) {
	return r.strategy.getUserConversations(ctx, r.Chk(ctx), userID, limit, offset)
}

func (r *Repository) GetConversationMessages(ctx context.Context, conversationID, viewerID string, limit, offset int32) (*model.MessageList, error) {
	return r.strategy.getConversationMessages(ctx, r.Chk(ctx), conversationID, viewerID, limit, offset)
}

func (r *Repository) MarkConversationRead(ctx context.Context, userID, conversationID string) error {
	return r.strategy.markConversationRead(ctx, r.Chk(ctx), userID, conversationID)
}

func (r *Repository) SaveMessage(ctx context.Context, message *model.Message) error {
	query, args, err := sq.Insert("messages").
		Columns("id", "conversation_id", "sender_id", "content").
		Values(message.ID, message.ConversationID, message.SenderID, message.Content).
		Suffix("RETURNING created_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	err = r.Chk(ctx).GetContext(ctx, &message.CreatedAt, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save message: %v", err)
	}

	return nil
}

// TouchConversation refreshes the denormalized last-message columns. Both the
// send path and the read path write this row last-writer-wins; the timestamps
// only advance, so a stale overwrite cannot lose messages.
func (r *Repository) TouchConversation(ctx context.Context, conversationID string, message *model.Message) error {
	query, args, err := sq.Update("conversations").
		Set("last_message", message.Content).
		Set("last_message_at", message.CreatedAt).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": conversationID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.Chk(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	query, args, err := sq.
		Select("COUNT(*) > 0").
		From("conversations").
		Where(sq.Eq{"id": conversationID}).
		Where(sq.Or{
			sq.Eq{"user_one_id": userID},
			sq.Eq{"user_two_id": userID},
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build sql query: %v", err)
	}

	var isParticipant bool
	err = r.Chk(ctx).GetContext(ctx, &isParticipant, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to check conversation membership: %v", err)
	}

	return isParticipant, nil
}

// unreadTotalQuery counts counterpart messages newer than the viewer's read
// cursor across every conversation; a missing cursor row counts everything.
func unreadTotalQuery(userID string) (string, []interface{}, error) {
	return sq.
		Select("COUNT(*)").
		From("messages m").
		Join("conversations c ON m.conversation_id = c.id").
		LeftJoin("conversation_reads r ON r.conversation_id = c.id AND r.user_id = ?", userID).
		Where(sq.Or{
			sq.Eq{"c.user_one_id": userID},
			sq.Eq{"c.user_two_id": userID},
		}).
		Where(sq.NotEq{"m.sender_id": userID}).
		Where(sq.Or{
			sq.Eq{"r.last_read_at": nil},
			sq.Expr("m.created_at > r.last_read_at"),
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func (r *Repository) CountUnreadTotal(ctx context.Context, userID string) (int64, error) {
	query, args, err := unreadTotalQuery(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to build sql query: %v", err)
	}

	var total int64
	err = r.Chk(ctx).GetContext(ctx, &total, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %v", err)
	}

	return total, nil
}

func (r *Repository) UpsertProfile(ctx context.Context, profile *model.ProfileParams) error {
	query, args, err := sq.Insert("chat_users").
		Columns("id", "nickname", "avatar_url").
		Values(profile.UserID, profile.Nickname, profile.AvatarURL).
		Suffix("ON CONFLICT (id) DO UPDATE SET nickname = EXCLUDED.nickname, avatar_url = EXCLUDED.avatar_url").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.Chk(ctx).ExecContext(ctx, query, args...)

	return err
}

func (r *Repository) UpdateProfileNickname(ctx context.Context, userUUID, newNickname string) error {
	query, args, err := sq.Update("chat_users").
		Set("nickname", newNickname).
		Where(sq.Eq{"id": userUUID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.Chk(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateProfileAvatar(ctx context.Context, userUUID, avatarLink string) error {
	query, args, err := sq.Update("chat_users").
		Set("avatar_url", avatarLink).
		Where(sq.Eq{"id": userUUID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.Chk(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return nil
}
