package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DisplayInfo is the public profile fragment shown next to a conversation.
type DisplayInfo struct {
	UserID   int64  `db:"user_id" json:"user_id"`
	Nickname string `db:"nickname" json:"nickname"`
	Avatar   string `db:"avatar" json:"avatar"`
}

// UserDirectory resolves user existence and display profiles. The chat
// subsystem consumes it only at this boundary; account management lives
// elsewhere.
type UserDirectory interface {
	Exists(ctx context.Context, userID int64) (bool, error)
	DisplayInfo(ctx context.Context, userID int64) (DisplayInfo, error)
	BulkDisplayInfo(ctx context.Context, userIDs []int64) (map[int64]DisplayInfo, error)
}

// Repo is a sqlx implementation over the user_profiles table.
type Repo struct {
	db *sqlx.DB
}

// NewRepo constructs a Repo.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Exists reports whether a profile row exists for the user.
func (r *Repo) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM user_profiles WHERE user_id=$1)`, userID)
	return exists, err
}

// DisplayInfo fetches the user's nickname and avatar. Missing rows fall
// back to a generated nickname so the conversation list never renders an
// empty name.
func (r *Repo) DisplayInfo(ctx context.Context, userID int64) (DisplayInfo, error) {
	var info DisplayInfo
	err := r.db.GetContext(ctx, &info, `SELECT user_id, nickname, avatar FROM user_profiles WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return fallbackInfo(userID), nil
	}
	if err != nil {
		return DisplayInfo{}, err
	}
	if info.Nickname == "" {
		info.Nickname = fallbackInfo(userID).Nickname
	}
	return info, nil
}

// BulkDisplayInfo fetches several profiles in one query.
func (r *Repo) BulkDisplayInfo(ctx context.Context, userIDs []int64) (map[int64]DisplayInfo, error) {
	result := make(map[int64]DisplayInfo, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT user_id, nickname, avatar FROM user_profiles WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return nil, err
	}
	var infos []DisplayInfo
	if err := r.db.SelectContext(ctx, &infos, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	for _, info := range infos {
		if info.Nickname == "" {
			info.Nickname = fallbackInfo(info.UserID).Nickname
		}
		result[info.UserID] = info
	}
	for _, id := range userIDs {
		if _, ok := result[id]; !ok {
			result[id] = fallbackInfo(id)
		}
	}
	return result, nil
}

func fallbackInfo(userID int64) DisplayInfo {
	return DisplayInfo{UserID: userID, Nickname: fmt.Sprintf("user:%d", userID)}
}
