package model

// ProfileParams is the local projection of a user profile, owned by the
// profile service and mirrored into chat_users for cheap inbox rendering.
type ProfileParams struct {
	UserID    string `db:"id" json:"user_id"`
	Nickname  string `db:"nickname" json:"nickname"`
	AvatarURL string `db:"avatar_url" json:"avatar_url"`
}
