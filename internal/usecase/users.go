package usecase

import (
	"context"

	"chatsync/internal/models"
	"chatsync/internal/repository"
)

type Users struct {
	repo *repository.Repository[models.User]
	opts Options
}

func NewUsers(repo *repository.Repository[models.User], opts Options) *Users {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.With("usecase", "users")
	return &Users{repo: repo, opts: opts}
}

func (u *Users) Get(ctx context.Context, id string) (models.User, error) {
	user, err := u.repo.ReadThrough(ctx, id)
	if err != nil {
		u.opts.Logger.Error("get user", "user_id", id, "error", err)
		return user, err
	}
	user.IsCurrent = user.ID == u.opts.CurrentUserID
	return user, nil
}

// Current returns the signed in user.
func (u *Users) Current(ctx context.Context) (models.User, error) {
	return u.Get(ctx, u.opts.CurrentUserID)
}
