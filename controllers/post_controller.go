package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/engage/models"
	"github.com/cppla/engage/services"
	"github.com/cppla/engage/utils"
)

const cacheTTL = time.Hour

// PostController serves posts, likes and comment threads.
type PostController struct {
	engagement *services.Engagement
	threads    *services.ThreadManager
}

// NewPostController creates a new PostController instance.
func NewPostController(svc *services.Services) *PostController {
	return &PostController{engagement: svc.Engagement, threads: svc.Threads}
}

// CreatePost allows approved users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post, err := p.engagement.CreatePost(ctx.Request.Context(), userID, req.Title, req.Content)
	if err != nil {
		respondError(ctx, err)
		return
	}

	utils.InvalidatePostList()
	utils.Created(ctx, gin.H{"post": post})
}

type postPage struct {
	Items      []models.Post `json:"items"`
	Pagination gin.H         `json:"pagination"`
}

// ListPosts returns paginated posts including author information.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	key := utils.PostListCacheKey(utils.PostListGeneration(), page, pageSize)

	var out postPage
	if utils.CacheGetJSON(key, &out) {
		utils.Success(ctx, out)
		return
	}

	posts, total, err := p.engagement.ListPosts(ctx.Request.Context(), page, pageSize)
	if err != nil {
		respondError(ctx, err)
		return
	}
	out = postPage{
		Items: posts,
		Pagination: gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	utils.CacheSetJSON(key, out, cacheTTL)
	utils.Success(ctx, out)
}

// GetPost returns a single post with its counters.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	key := utils.PostCacheKey(postID, utils.PostGeneration(postID))
	var post models.Post
	if utils.CacheGetJSON(key, &post) {
		utils.Success(ctx, gin.H{"post": post})
		return
	}

	loaded, err := p.engagement.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.CacheSetJSON(key, loaded, cacheTTL)
	utils.Success(ctx, gin.H{"post": loaded})
}

// DeletePost removes a post with its likes and comments.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if err := p.engagement.DeletePost(ctx.Request.Context(), postID, userID); err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidatePost(postID)
	utils.Success(ctx, gin.H{"deleted": true})
}

type likeFunc func(ctx context.Context, postID, userID uint) (services.LikeResult, error)

func (p *PostController) likeAction(fn likeFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		postID, ok := paramID(ctx, "id")
		if !ok {
			return
		}
		userID, ok := getUserID(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
			return
		}

		res, err := fn(ctx.Request.Context(), postID, userID)
		if err != nil {
			respondError(ctx, err)
			return
		}
		utils.InvalidatePost(postID)
		utils.Success(ctx, res)
	}
}

// ToggleLike flips the caller's like on a post.
func (p *PostController) ToggleLike(ctx *gin.Context) { p.likeAction(p.engagement.ToggleLike)(ctx) }

// Like makes sure the caller likes a post. Repeating it changes nothing.
func (p *PostController) Like(ctx *gin.Context) { p.likeAction(p.engagement.Like)(ctx) }

// Unlike removes the caller's like if there is one.
func (p *PostController) Unlike(ctx *gin.Context) { p.likeAction(p.engagement.Unlike)(ctx) }

// CreateComment adds a comment or a reply to a post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	postID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Content  string `json:"content" binding:"required"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	comment, err := p.threads.AddComment(ctx.Request.Context(), postID, userID, req.Content, req.ParentID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidatePost(postID)
	utils.Created(ctx, gin.H{"comment": comment})
}

// ListComments returns the comment tree of a post.
func (p *PostController) ListComments(ctx *gin.Context) {
	postID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	key := utils.ThreadCacheKey(postID, utils.PostGeneration(postID))
	var thread []*services.ThreadNode
	if utils.CacheGetJSON(key, &thread) {
		utils.Success(ctx, gin.H{"comments": thread})
		return
	}

	thread, err := p.threads.Thread(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.CacheSetJSON(key, thread, cacheTTL)
	utils.Success(ctx, gin.H{"comments": thread})
}

// DeleteComment removes a comment and every reply below it.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	commentID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	comment, err := p.threads.Comment(ctx.Request.Context(), commentID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	removed, err := p.threads.DeleteComment(ctx.Request.Context(), commentID, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidatePost(comment.PostID)
	utils.Success(ctx, gin.H{"removed": removed})
}
