package http

import (
	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/yatube/internal/policy"
)

// FollowIndex is the feed: posts by every author the actor follows.
func (e *Env) FollowIndex(r *Request) Outcome {
	if r.Actor == nil {
		return RedirectToLogin(r)
	}
	page, err := e.Repo.ListFeedFor(r.Ctx, r.Actor, r.Page)
	if err != nil {
		return Fail(err)
	}
	return Render("posts/follow", gin.H{"page_obj": page})
}

// ProfileFollow subscribes the actor to the profile's author. Following
// yourself or someone already followed changes nothing.
func (e *Env) ProfileFollow(r *Request) Outcome {
	if r.Actor == nil {
		return RedirectToLogin(r)
	}
	author, err := e.Repo.GetUserByUsername(r.Ctx, r.Param("username"))
	if err != nil {
		return FromError(err)
	}

	if policy.CanFollow(r.Actor, author.Username) {
		created, err := e.Repo.CreateFollowIfAbsent(r.Ctx, r.Actor, author)
		if err != nil {
			return Fail(err)
		}
		if created {
			e.Log.Infow("Follow created", "user", r.Actor.Username, "author", author.Username)
		}
	}
	return Redirect(profileURL(author.Username))
}

// ProfileUnfollow removes the actor's subscription. It is a 404 when there
// is nothing to remove.
func (e *Env) ProfileUnfollow(r *Request) Outcome {
	if r.Actor == nil {
		return RedirectToLogin(r)
	}
	author, err := e.Repo.GetUserByUsername(r.Ctx, r.Param("username"))
	if err != nil {
		return FromError(err)
	}

	if err := e.Repo.DeleteFollow(r.Ctx, r.Actor, author); err != nil {
		return FromError(err)
	}
	e.Log.Infow("Follow removed", "user", r.Actor.Username, "author", author.Username)
	return Redirect(profileURL(author.Username))
}
